package behavior

import (
	"github.com/fxsml/mediator"
)

// LogConfig holds configuration for the log behavior.
// All fields can be customized individually. Defaults are used for any
// fields not set.
type LogConfig struct {
	// Args are additional arguments to include in all log messages.
	Args []any

	// LevelSuccess is the log level used for successful dispatch.
	// Defaults to LogLevelDebug.
	LevelSuccess mediator.LogLevel
	// LevelCancel is the log level used when dispatch is canceled.
	// Defaults to LogLevelWarn.
	LevelCancel mediator.LogLevel
	// LevelFailure is the log level used when dispatch fails.
	// Defaults to LogLevelError.
	LevelFailure mediator.LogLevel

	// MessageSuccess is the message logged on successful dispatch.
	// Defaults to "MEDIATOR: Success".
	MessageSuccess string
	// MessageCancel is the message logged when dispatch is canceled.
	// Defaults to "MEDIATOR: Cancel".
	MessageCancel string
	// MessageFailure is the message logged when dispatch fails.
	// Defaults to "MEDIATOR: Failure".
	MessageFailure string

	// Disabled disables all logging when set to true.
	Disabled bool
}

func (c LogConfig) parse() LogConfig {
	if c.LevelSuccess == "" {
		c.LevelSuccess = mediator.LogLevelDebug
	}
	if c.LevelCancel == "" {
		c.LevelCancel = mediator.LogLevelWarn
	}
	if c.LevelFailure == "" {
		c.LevelFailure = mediator.LogLevelError
	}
	if c.MessageSuccess == "" {
		c.MessageSuccess = "MEDIATOR: Success"
	}
	if c.MessageCancel == "" {
		c.MessageCancel = "MEDIATOR: Cancel"
	}
	if c.MessageFailure == "" {
		c.MessageFailure = "MEDIATOR: Failure"
	}
	return c
}

// Log logs the outcome of everything inward.
func Log(log mediator.Logger, config LogConfig) mediator.Behavior {
	return Measure(NewMetricsLogger(log, config))
}

// NewMetricsLogger creates a MetricsCollector that logs each dispatch.
func NewMetricsLogger(log mediator.Logger, config LogConfig) MetricsCollector {
	config = config.parse()
	if config.Disabled || log == nil {
		return func(*Metrics) {}
	}
	logCancel := mediator.LogFunc(log, config.LevelCancel)
	logFailure := mediator.LogFunc(log, config.LevelFailure)
	logSuccess := mediator.LogFunc(log, config.LevelSuccess)
	return func(m *Metrics) {
		args := append(metricsArgs(m), config.Args...)
		switch {
		case m.Error == nil:
			logSuccess(config.MessageSuccess, append(args, "duration", m.Duration)...)
		case m.Cancel() == 1:
			logCancel(config.MessageCancel, append(args, "error", m.Error)...)
		default:
			logFailure(config.MessageFailure, append(args, "error", m.Error, "duration", m.Duration)...)
		}
	}
}

func metricsArgs(m *Metrics) []any {
	args := []any{
		"request", m.Request.Type.String(),
		"kind", m.Request.Kind.String(),
	}
	if m.CorrelationID != "" {
		args = append(args, "correlation_id", m.CorrelationID)
	}
	if m.RetryState != nil {
		args = append(args, "attempt", m.RetryState.Attempts)
	}
	return args
}
