package infra

import (
	"go.uber.org/zap"

	"github.com/liftops/kioskd/internal/domain"
)

// LogStatusSink is the default status sink when no taskbar UI is attached:
// status text and alerts go to the log.
type LogStatusSink struct {
	logger *zap.Logger
}

// NewLogStatusSink creates a log-backed status sink.
func NewLogStatusSink(logger *zap.Logger) *LogStatusSink {
	return &LogStatusSink{logger: logger}
}

func (s *LogStatusSink) SetStatus(text string) {
	s.logger.Info("status", zap.String("text", text))
}

func (s *LogStatusSink) Alert(title, message string) {
	s.logger.Error("alert",
		zap.String("title", title),
		zap.String("message", message))
}

var _ domain.StatusSink = (*LogStatusSink)(nil)
