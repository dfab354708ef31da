package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/statenode/pkg/domain"
)

// LogHooks returns lifecycle hooks that write an audit trail to logger.
// Transitions are logged at Info, rejections and emissions at Debug, store failures at Warn.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.Event) {
			logger.InfoContext(ctx, "transition",
				"machine", e.Machine,
				"key", e.Key,
				"trigger", e.Trigger,
				"from", e.From,
				"to", e.To,
			)
		},
		OnRejected: func(ctx context.Context, e *domain.Event) {
			logger.DebugContext(ctx, "trigger_rejected",
				"machine", e.Machine,
				"key", e.Key,
				"trigger", e.Trigger,
				"canonical", e.Canonical,
				"state", e.From,
			)
		},
		OnEmit: func(ctx context.Context, e *domain.Event) {
			logger.DebugContext(ctx, "emit", "machine", e.Machine, "key", e.Key, "state", e.To)
		},
		OnStoreError: func(ctx context.Context, e *domain.Event) {
			logger.WarnContext(ctx, "store_error", "machine", e.Machine, "key", e.Key, "err", e.Err)
		},
	}
}
