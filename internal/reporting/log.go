// internal/reporting/log.go
package reporting

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/bugtrap/api/schemas"
	"github.com/xkilldash9x/bugtrap/internal/observability"
)

// LogSink writes each message to the application log.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink logs through logger, or the global logger when nil.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = observability.GetLogger()
	}
	return &LogSink{logger: logger.Named("captured")}
}

func (s *LogSink) Report(msg schemas.Message) {
	fields := []zap.Field{zap.String("kind", string(msg.Kind))}
	if loc := Location(msg); loc != "" {
		fields = append(fields, zap.String("location", loc))
	}
	fields = append(fields, zap.Any("desc", msg.Descriptor))

	switch msg.Kind {
	case schemas.KindReportError:
		s.logger.Info(Summary(msg), fields...)
	case schemas.KindResourceError:
		s.logger.Warn(Summary(msg), fields...)
	default:
		s.logger.Error(Summary(msg), fields...)
	}
}

func (s *LogSink) Close() error {
	// Syncing stderr/stdout fails on some platforms; the error carries no signal.
	_ = s.logger.Sync()
	return nil
}
