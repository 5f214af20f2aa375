package aggregates

import (
	"errors"
	"fmt"

	"github.com/yungbote/iterations-backend/internal/data/repos"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/pkg/dbctx"
)

// VersionResolver assigns dense 1..N versions within a lineage. Callers
// must hold the lineage lock for NextVersion to be meaningful.
type VersionResolver struct {
	subs repos.SubmissionRepo
}

func NewVersionResolver(subs repos.SubmissionRepo) VersionResolver {
	return VersionResolver{subs: subs}
}

// NextVersion returns COUNT(lineage)+1 after checking the lineage counter
// and that the slot is free.
func (v VersionResolver) NextVersion(dbc dbctx.Context, lineage *types.UserExercise) (int, error) {
	if lineage == nil {
		return 0, ValidationError("missing lineage")
	}
	n, err := v.subs.CountByExercise(dbc, lineage.ID)
	if err != nil {
		return 0, err
	}
	if err := RequireCountMatch(lineage.IterationCount, n, "iteration_count"); err != nil {
		return 0, fmt.Errorf("lineage %s stores %d iterations, found %d: %w", lineage.Key, lineage.IterationCount, n, err)
	}
	next := int(n) + 1
	taken, err := v.subs.GetByVersion(dbc, lineage.ID, next)
	if err != nil {
		return 0, err
	}
	if taken != nil {
		return 0, errors.Join(ErrInvariant, learning.ErrVersionCollision, fmt.Errorf("version %d already present in lineage %s", next, lineage.Key))
	}
	return next, nil
}

// Predecessor returns the iteration immediately before sub in its lineage,
// or nil for the first one.
func (v VersionResolver) Predecessor(dbc dbctx.Context, sub *types.Submission) (*types.Submission, error) {
	if sub == nil || sub.Version <= 1 {
		return nil, nil
	}
	return v.subs.GetByVersion(dbc, sub.UserExerciseID, sub.Version-1)
}
