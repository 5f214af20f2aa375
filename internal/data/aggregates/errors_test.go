package aggregates

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"gorm.io/gorm"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeRetryable, "op", "retry", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
}

func TestMapError_PostgresCodes(t *testing.T) {
	cases := map[string]domainagg.ErrorCode{
		"23505": domainagg.CodeConflict,
		"23503": domainagg.CodePreconditionFailed,
		"40001": domainagg.CodeRetryable,
		"40P01": domainagg.CodeRetryable,
		"55P03": domainagg.CodeRetryable,
	}
	for code, want := range cases {
		err := MapError("op", &pgconn.PgError{Code: code, ConstraintName: "idx_other"})
		if !domainagg.IsCode(err, want) {
			t.Fatalf("pg %s: want %s got %q", code, want, domainagg.CodeOf(err))
		}
	}
}

func TestMapError_VersionCollisionIsInvariant(t *testing.T) {
	pg := MapError("op", &pgconn.PgError{Code: "23505", ConstraintName: versionIndexName})
	if !domainagg.IsCode(pg, domainagg.CodeInvariantViolation) {
		t.Fatalf("postgres collision: expected invariant, got %q", domainagg.CodeOf(pg))
	}
	if !errors.Is(pg, learning.ErrVersionCollision) {
		t.Fatalf("postgres collision: expected ErrVersionCollision in chain")
	}

	lite := MapError("op", errors.New("UNIQUE constraint failed: submission.user_exercise_id, submission.version"))
	if !domainagg.IsCode(lite, domainagg.CodeInvariantViolation) || !errors.Is(lite, learning.ErrVersionCollision) {
		t.Fatalf("sqlite collision: unexpected %v", lite)
	}

	other := MapError("op", errors.New("UNIQUE constraint failed: user.username"))
	if !domainagg.IsCode(other, domainagg.CodeConflict) {
		t.Fatalf("other unique: expected conflict, got %q", domainagg.CodeOf(other))
	}
}

func TestMapError_ContextIsRetryable(t *testing.T) {
	if err := MapError("op", context.Canceled); !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("expected retryable, got %q", domainagg.CodeOf(err))
	}
}
