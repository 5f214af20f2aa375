package services

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
)

// AttemptValidator turns a client file path into a problem and detects
// resubmissions of unchanged code.
type AttemptValidator interface {
	Resolve(filePath string) (types.Problem, bool)
	IsDuplicate(ctx context.Context, userID uuid.UUID, problem types.Problem, code string) (bool, error)
}

type pathValidator struct {
	tracks map[string]struct{}
	subs   repos.SubmissionRepo
}

// NewPathValidator resolves "<...>/<track>/<slug>/<file>" paths. With an
// empty track list every track is accepted.
func NewPathValidator(knownTracks []string, subs repos.SubmissionRepo) AttemptValidator {
	tracks := make(map[string]struct{}, len(knownTracks))
	for _, t := range knownTracks {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			tracks[t] = struct{}{}
		}
	}
	return &pathValidator{tracks: tracks, subs: subs}
}

func (v *pathValidator) Resolve(filePath string) (types.Problem, bool) {
	segs := pathSegments(filePath)
	if len(segs) < 3 {
		return types.Problem{}, false
	}
	p := types.Problem{
		TrackID: strings.ToLower(segs[len(segs)-3]),
		Slug:    strings.ToLower(segs[len(segs)-2]),
	}
	if !p.Valid() {
		return p, false
	}
	if len(v.tracks) > 0 {
		if _, ok := v.tracks[p.TrackID]; !ok {
			return p, false
		}
	}
	return p, true
}

// IsDuplicate compares code byte for byte with the most recent iteration
// on the problem.
func (v *pathValidator) IsDuplicate(ctx context.Context, userID uuid.UUID, problem types.Problem, code string) (bool, error) {
	if v.subs == nil || userID == uuid.Nil {
		return false, nil
	}
	prior, err := v.subs.ListForUserProblem(dbctx.Context{Ctx: ctx}, userID, problem)
	if err != nil {
		return false, err
	}
	if len(prior) == 0 {
		return false, nil
	}
	return prior[0].Code() == code, nil
}

// AttemptFilename is the file name part of a client path.
func AttemptFilename(filePath string) string {
	segs := pathSegments(filePath)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

func pathSegments(filePath string) []string {
	p := strings.ReplaceAll(strings.TrimSpace(filePath), "\\", "/")
	p = path.Clean("/" + p)
	out := []string{}
	for _, s := range strings.Split(p, "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}
