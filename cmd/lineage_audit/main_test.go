package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/services"
)

type fakeAuditor struct {
	issues map[uuid.UUID][]services.LineageIssue
	fail   uuid.UUID
}

func (f *fakeAuditor) AuditUser(_ context.Context, userID uuid.UUID) ([]services.LineageIssue, error) {
	if userID == f.fail {
		return nil, errors.New("db down")
	}
	return f.issues[userID], nil
}

func TestAuditPrintsIssues(t *testing.T) {
	clean, broken := uuid.New(), uuid.New()
	f := &fakeAuditor{issues: map[uuid.UUID][]services.LineageIssue{
		broken: {{
			Problem: types.Problem{TrackID: "ruby", Slug: "leap"},
			Kind:    services.IssueVersionGap,
			Detail:  "position 2 holds version 3",
		}},
	}}

	var out bytes.Buffer
	total, err := audit(context.Background(), f, []uuid.UUID{clean, broken}, &out, false)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Contains(t, out.String(), "ruby/leap\tversion_gap")
	require.True(t, strings.HasSuffix(out.String(), "audited 2 users, 1 issues\n"))

	out.Reset()
	_, err = audit(context.Background(), f, []uuid.UUID{broken}, &out, true)
	require.NoError(t, err)
	var line issueLine
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	require.Equal(t, broken, line.UserID)
	require.Equal(t, "ruby/leap", line.Problem)

	f.fail = clean
	_, err = audit(context.Background(), f, []uuid.UUID{clean}, &out, false)
	require.ErrorContains(t, err, "db down")
}

func TestParseUserIDs(t *testing.T) {
	id := uuid.New()
	got, err := parseUserIDs([]string{" " + id.String() + " ", ""})
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{id}, got)

	_, err = parseUserIDs([]string{"nope"})
	require.Error(t, err)
}
