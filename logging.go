package params

import (
	"log/slog"
	"time"
)

// Op identifies a state-changing parameter operation for logging.
type Op string

const (
	// OpSet is an in-place replacement of the current stack top.
	OpSet Op = "set"
	// OpScopeEnter is a scoped override being pushed.
	OpScopeEnter Op = "scope.enter"
	// OpScopeExit is a scoped override being popped.
	OpScopeExit Op = "scope.exit"
	// OpRelease is the parameter itself being torn down.
	OpRelease Op = "release"
	// OpActivity is an activity emission failure surfaced through the logger.
	OpActivity Op = "activity"
)

// LogEvent describes a state-changing operation for logging. Reads are never
// logged; Depth is the stack depth after the operation in the acting context.
type LogEvent struct {
	Param    string
	Op       Op
	Context  ContextID
	Depth    int
	Duration time.Duration
	Err      error
}

// EventLogger records parameter events.
type EventLogger interface {
	LogParamEvent(LogEvent)
}

// EventLoggerFunc adapts a function to EventLogger.
type EventLoggerFunc func(LogEvent)

// LogParamEvent implements EventLogger.
func (f EventLoggerFunc) LogParamEvent(event LogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEventLogger struct{}

func (noopEventLogger) LogParamEvent(LogEvent) {}

// WithLogger attaches an event logger to the parameter.
func WithLogger[T any](logger EventLogger) Option[T] {
	return func(cfg *paramConfig[T]) {
		if logger == nil {
			cfg.logger = noopEventLogger{}
			return
		}
		cfg.logger = logger
	}
}

// NewSlogLogger adapts a slog logger to EventLogger. Successful operations
// log at debug level, failed ones at warn with the error attached.
func NewSlogLogger(logger *slog.Logger) EventLogger {
	if logger == nil {
		return noopEventLogger{}
	}
	return EventLoggerFunc(func(event LogEvent) {
		attrs := []any{
			slog.String("param", event.Param),
			slog.String("op", string(event.Op)),
			slog.Int64("context", int64(event.Context)),
			slog.Int("depth", event.Depth),
			slog.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			attrs = append(attrs, slog.Any("error", event.Err))
			logger.Warn("param operation failed", attrs...)
			return
		}
		logger.Debug("param operation", attrs...)
	})
}
