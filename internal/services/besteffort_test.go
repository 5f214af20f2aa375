package services

import (
	"context"
	"errors"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	repotest "github.com/yungbote/iterations-backend/internal/data/repos/testutil"
	"github.com/yungbote/iterations-backend/internal/observability"
)

func TestBestEffortSwallowsErrorsAndPanics(t *testing.T) {
	log := repotest.Logger(t)
	m := observability.Init(log, true)
	require.NotNil(t, m)

	ran := 0
	BestEffort(context.Background(), log, "test.ok", func(context.Context) error {
		ran++
		return nil
	})
	BestEffort(context.Background(), log, "test.error", func(context.Context) error {
		ran++
		return errors.New("side channel down")
	})
	BestEffort(context.Background(), log, "test.panic", func(context.Context) error {
		ran++
		panic("boom")
	})
	BestEffort(context.Background(), log, "test.nil", nil)
	require.Equal(t, 3, ran)

	n, err := promtestutil.GatherAndCount(m.Registry(), "it_best_effort_failures_total")
	require.NoError(t, err)
	require.GreaterOrEqual(t, n, 2)
}
