// Package observability bundles the relay's structured logging, Prometheus
// metrics, health checks and tracing init.
package observability

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a structured logger tagged with the service identity.
func NewLogger(service, version string, output io.Writer) *Logger {
	if output == nil {
		output = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()

	return &Logger{logger: logger}
}

// WithLink adds the radio link name to the logging context.
func (l *Logger) WithLink(name string) *Logger {
	return &Logger{logger: l.logger.With().Str("link", name).Logger()}
}

// WithNode adds the remote node id to the logging context.
func (l *Logger) WithNode(node uint8) *Logger {
	return &Logger{logger: l.logger.With().Uint8("node", node).Logger()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(err error, msg string) {
	l.logger.Fatal().Err(err).Msg(msg)
}

// PeerStateChanged logs a reachability transition on the short-range link.
func (l *Logger) PeerStateChanged(node uint8, reachable bool) {
	l.logger.Info().
		Uint8("node", node).
		Bool("reachable", reachable).
		Msg("peer reachability changed")
}

// QueueSaturated logs a tier hitting its capacity ceiling.
func (l *Logger) QueueSaturated(tier string, dropFull uint64) {
	l.logger.Warn().
		Str("tier", tier).
		Uint64("drops_full", dropFull).
		Msg("tier saturated, dropping at enqueue")
}

// FECAdjusted logs an adaptive parity change on the long-range link.
func (l *Logger) FECAdjusted(k, r int, reason string) {
	l.logger.Info().
		Int("data_shards", k).
		Int("parity_shards", r).
		Str("reason", reason).
		Msg("long-range FEC parity adjusted")
}

// TickSummary logs one scheduler loop iteration at debug level.
func (l *Logger) TickSummary(ingested, rejected, drained int, depthCritical, depthImportant, depthRoutine int) {
	l.logger.Debug().
		Int("ingested", ingested).
		Int("rejected", rejected).
		Int("drained", drained).
		Int("depth_critical", depthCritical).
		Int("depth_important", depthImportant).
		Int("depth_routine", depthRoutine).
		Msg("scheduler tick")
}
