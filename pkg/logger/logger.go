package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is a zerolog logger with the map-of-fields call style used across
// the service.
type Logger struct {
	logger zerolog.Logger
}

type Config struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // json, console
	Output      io.Writer
	EnableColor bool
	Service     string
}

var global atomic.Pointer[Logger]

// Initialize replaces the process-wide logger. It is safe to call again,
// which tests do to capture output.
func Initialize(cfg Config) {
	zerolog.SetGlobalLevel(levelOf(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !cfg.EnableColor,
		}
	}

	zctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		zctx = zctx.Str("service", cfg.Service)
	}
	l := &Logger{logger: zctx.Logger()}

	global.Store(l)
	log.Logger = l.logger
}

// levelOf falls back to info for empty or unknown names.
func levelOf(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Get returns the process-wide logger, creating a console logger at info
// when Initialize has not run yet.
func Get() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	Initialize(Config{Level: "info", Format: "console", EnableColor: true})
	return global.Load()
}

// WithContext returns a child logger that always carries fields.
func (l *Logger) WithContext(fields map[string]interface{}) *Logger {
	return &Logger{logger: l.logger.With().Fields(fields).Logger()}
}

// emit stamps the caller skip frames above itself, merges the optional
// field map and writes the event.
func emit(event *zerolog.Event, skip int, msg string, fields []map[string]interface{}) {
	event = event.Caller(skip)
	if len(fields) > 0 && fields[0] != nil {
		event = event.Fields(fields[0])
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Debug(), 2, msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Info(), 2, msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.logger.Warn(), 2, msg, fields)
}

func (l *Logger) Error(msg string, err error, fields ...map[string]interface{}) {
	emit(l.logger.Error().Err(err), 2, msg, fields)
}

// Fatal exits the process after writing.
func (l *Logger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	emit(l.logger.Fatal().Err(err), 2, msg, fields)
}

func Debug(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Debug(), 2, msg, fields)
}

func Info(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Info(), 2, msg, fields)
}

func Warn(msg string, fields ...map[string]interface{}) {
	emit(Get().logger.Warn(), 2, msg, fields)
}

func Error(msg string, err error, fields ...map[string]interface{}) {
	emit(Get().logger.Error().Err(err), 2, msg, fields)
}

func Fatal(msg string, err error, fields ...map[string]interface{}) {
	emit(Get().logger.Fatal().Err(err), 2, msg, fields)
}

func WithContext(fields map[string]interface{}) *Logger {
	return Get().WithContext(fields)
}

// Leveled adapts the global logger to printf-style leveled logging
// interfaces such as the one stripe-go expects.
type Leveled struct {
	Component string
}

func (l Leveled) logf(event *zerolog.Event, format string, v []interface{}) {
	emit(event.Str("component", l.Component), 3, fmt.Sprintf(format, v...), nil)
}

func (l Leveled) Debugf(format string, v ...interface{}) { l.logf(Get().logger.Debug(), format, v) }
func (l Leveled) Infof(format string, v ...interface{})  { l.logf(Get().logger.Info(), format, v) }
func (l Leveled) Warnf(format string, v ...interface{})  { l.logf(Get().logger.Warn(), format, v) }
func (l Leveled) Errorf(format string, v ...interface{}) { l.logf(Get().logger.Error(), format, v) }
