package logger

import (
	"github.com/sugu-inc/modern-billing/internal/config"
	"go.uber.org/zap"
)

// Logger wraps zap.SugaredLogger, matching the teacher's logger shape
// (internal/logger/logger.go) minus the Fluentd transport, which is an
// observability-pipeline detail out of spec.md §1's scope.
type Logger struct {
	*zap.SugaredLogger
}

// NewLogger builds a Logger from the process Configuration.
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	var zapCfg zap.Config
	if cfg.Logging.Level == "debug" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"

	z, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{SugaredLogger: z.Sugar()}, nil
}

// NewNop builds a no-op logger for tests.
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Sync flushes any buffered log entries; call on process shutdown.
func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

// retryableHTTPLogger adapts Logger to go-retryablehttp's minimal Logger
// interface (a single Printf method), for the webhook dispatcher's outbound
// client.
type retryableHTTPLogger struct {
	logger *Logger
}

// GetRetryableHTTPLogger returns a retryablehttp-compatible logger.
func (l *Logger) GetRetryableHTTPLogger() *retryableHTTPLogger {
	return &retryableHTTPLogger{logger: l}
}

func (r *retryableHTTPLogger) Printf(format string, v ...interface{}) {
	r.logger.Debugf(format, v...)
}
