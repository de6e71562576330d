// Package sentry wires best-effort error reporting around the HTTP edge
// and the scheduler activities, grounded on the teacher's
// internal/sentry.Service (trimmed to Init/CaptureException/Flush — this
// engine has no ClickHouse/Kafka spans to annotate).
package sentry

import (
	"context"
	"time"

	sentrygo "github.com/getsentry/sentry-go"
	"go.uber.org/fx"

	"github.com/sugu-inc/modern-billing/internal/config"
	"github.com/sugu-inc/modern-billing/internal/logger"
)

// Service wraps the process-wide Sentry hub, a no-op when cfg.Sentry.Enabled
// is false so call sites never need to branch on configuration.
type Service struct {
	cfg    *config.Configuration
	logger *logger.Logger
}

func NewService(cfg *config.Configuration, log *logger.Logger) *Service {
	return &Service{cfg: cfg, logger: log}
}

// Module bundles the fx provider and lifecycle hook, mirroring the
// teacher's sentry.Module() used directly in fx.New's option list.
func Module() fx.Option {
	return fx.Options(
		fx.Provide(NewService),
		fx.Invoke(RegisterHooks),
	)
}

// RegisterHooks initializes the Sentry SDK on process start and flushes
// buffered events on shutdown.
func RegisterHooks(lc fx.Lifecycle, svc *Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !svc.cfg.Sentry.Enabled {
				svc.logger.Info("sentry disabled")
				return nil
			}
			if err := sentrygo.Init(sentrygo.ClientOptions{
				Dsn:              svc.cfg.Sentry.DSN,
				Environment:      svc.cfg.Sentry.Environment,
				TracesSampleRate: svc.cfg.Sentry.SampleRate,
			}); err != nil {
				svc.logger.Errorw("sentry init failed", "error", err)
				return err
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if svc.cfg.Sentry.Enabled {
				sentrygo.Flush(2 * time.Second)
			}
			return nil
		},
	})
}

// CaptureException reports err to Sentry, a no-op when disabled.
func (s *Service) CaptureException(err error) {
	if !s.cfg.Sentry.Enabled || err == nil {
		return
	}
	sentrygo.CaptureException(err)
}
