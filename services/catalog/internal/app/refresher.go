package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/utafrali/storefront-catalog/services/catalog/internal/catalog"
)

type refreshFunc func(ctx context.Context) (catalog.RefreshResult, error)

// runRefreshLoop calls refresh every interval until ctx is canceled. A
// non-positive interval disables the loop. Failures are logged; the index
// keeps serving its previous catalog.
func runRefreshLoop(ctx context.Context, interval time.Duration, refresh refreshFunc, logger *slog.Logger) {
	if interval <= 0 {
		logger.Info("periodic catalog refresh disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic catalog refresh started", slog.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := refresh(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.WarnContext(ctx, "periodic catalog refresh failed", slog.String("error", err.Error()))
				continue
			}
			logger.DebugContext(ctx, "periodic catalog refresh completed",
				slog.Uint64("generation", res.Generation),
				slog.Bool("shared", res.Shared),
			)
		}
	}
}
