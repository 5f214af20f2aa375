package services

import (
	"context"
	"fmt"

	"github.com/yungbote/iterations-backend/internal/observability"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
)

// BestEffort runs a side-channel write whose failure must never reach the
// caller or roll back the primary operation. Errors and panics are logged
// and counted.
func BestEffort(ctx context.Context, log *logger.Logger, op string, fn func(ctx context.Context) error) {
	if fn == nil {
		return
	}
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn(ctx)
	}()
	if err == nil {
		return
	}
	if log != nil {
		log.Warn("best-effort operation failed", "op", op, "error", err)
	}
	observability.Current().IncBestEffortFailure(op)
}
