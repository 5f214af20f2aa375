package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindMatchesSpecificAndGeneric(t *testing.T) {
	errMissing := New(ErrNotFound, "submission not found")
	wrapped := fmt.Errorf("like: %w", errMissing)

	if !errors.Is(wrapped, errMissing) {
		t.Fatalf("specific sentinel not matched")
	}
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("generic sentinel not matched")
	}
	if errors.Is(wrapped, ErrConflict) {
		t.Fatalf("unexpected match")
	}
	if errMissing.Error() != "submission not found" {
		t.Fatalf("message: %q", errMissing.Error())
	}
}
