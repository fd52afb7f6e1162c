package main

import (
	"context"
	"time"

	"github.com/oremus-labs/scribe-bridge/internal/logutil"
)

type historyPruner interface {
	PruneAskHistoryBefore(before time.Time) (int64, error)
}

type tokenWarmer interface {
	Token(ctx context.Context) (string, error)
}

type automationOptions struct {
	Store      historyPruner
	Tokens     tokenWarmer
	Interval   time.Duration
	HistoryTTL time.Duration
}

// startAutomation keeps the token cache warm and prunes old ask history.
func startAutomation(ctx context.Context, opts automationOptions) {
	if opts.Interval <= 0 {
		return
	}
	logutil.Info("starting automation loop", map[string]interface{}{
		"interval":    opts.Interval.String(),
		"history_ttl": opts.HistoryTTL.String(),
	})
	ticker := time.NewTicker(opts.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runAutomationSweep(ctx, opts, time.Now().UTC())
			}
		}
	}()
}

func runAutomationSweep(ctx context.Context, opts automationOptions, now time.Time) {
	if opts.Tokens != nil {
		if _, err := opts.Tokens.Token(ctx); err != nil {
			logutil.Warn("automation: token refresh failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if opts.Store != nil && opts.HistoryTTL > 0 {
		before := now.Add(-opts.HistoryTTL)
		if removed, err := opts.Store.PruneAskHistoryBefore(before); err != nil {
			logutil.Error("automation: history prune failed", err, nil)
		} else if removed > 0 {
			logutil.Info("automation: purged ask history", map[string]interface{}{"removed": removed})
		}
	}
}
