package aggregates

import (
	"errors"
	"testing"
)

func TestRequireStateAllowed(t *testing.T) {
	if err := RequireStateAllowed("done", "done", "pending"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireStateAllowed("hibernating", "done", "pending"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if err := RequireStateAllowed("done"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRequireCountMatch(t *testing.T) {
	if err := RequireCountMatch(3, 3, "iteration_count"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCountMatch(2, 3, "iteration_count"); !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", err)
	}
}

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error")
	}
}
