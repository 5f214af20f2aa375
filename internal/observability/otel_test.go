package observability

import (
	"context"
	"testing"
)

func TestSampleRatio(t *testing.T) {
	cases := map[float64]float64{0: 0.1, -1: 0.1, 0.5: 0.5, 3: 1}
	for in, want := range cases {
		if got := sampleRatio(in); got != want {
			t.Fatalf("sampleRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestStartSpanWithoutProvider(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "learning.iteration.accept", "track", "ruby", "dangling")
	defer span.End()
	if ctx == nil {
		t.Fatalf("expected context")
	}
}
