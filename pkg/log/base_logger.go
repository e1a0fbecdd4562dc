package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// LoggerOption is a function that configures a logger.
type LoggerOption func(*BaseLogger)

// BaseLogger implements the Logger interface on top of zerolog.
type BaseLogger struct {
	level  Level
	fields []Field
	zl     zerolog.Logger
	out    io.Writer
	format string
}

// NewLogger creates a new logger with the given options. Without options it
// writes text entries at info level to stderr.
func NewLogger(options ...LoggerOption) Logger {
	l := &BaseLogger{
		level:  InfoLevel,
		out:    os.Stderr,
		format: "text",
	}
	for _, opt := range options {
		opt(l)
	}
	l.zl = newZerolog(l.out, l.format)
	return l
}

// WithLevel sets the minimum log level.
func WithLevel(level Level) LoggerOption {
	return func(l *BaseLogger) {
		l.level = level
	}
}

// WithOutput sets the writer entries go to.
func WithOutput(w io.Writer) LoggerOption {
	return func(l *BaseLogger) {
		l.out = w
	}
}

// WithFormat selects "json" or "text" output.
func WithFormat(format string) LoggerOption {
	return func(l *BaseLogger) {
		l.format = format
	}
}

func newZerolog(w io.Writer, format string) zerolog.Logger {
	if format == "json" {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	if err != nil {
		return false
	}
	return st.Mode()&os.ModeCharDevice != 0
}

// Debug logs a message at the debug level with fields.
func (l *BaseLogger) Debug(msg string, fields ...Field) {
	l.write(DebugLevel, msg, fields)
}

// Info logs a message at the info level with fields.
func (l *BaseLogger) Info(msg string, fields ...Field) {
	l.write(InfoLevel, msg, fields)
}

// Warn logs a message at the warn level with fields.
func (l *BaseLogger) Warn(msg string, fields ...Field) {
	l.write(WarnLevel, msg, fields)
}

// Error logs a message at the error level with fields.
func (l *BaseLogger) Error(msg string, fields ...Field) {
	l.write(ErrorLevel, msg, fields)
}

// With adds fields to the logger
func (l *BaseLogger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)
	return &BaseLogger{
		level:  l.level,
		fields: merged,
		zl:     l.zl,
		out:    l.out,
		format: l.format,
	}
}

// WithError returns a new logger with the error added as a field.
func (l *BaseLogger) WithError(err error) Logger {
	if err == nil {
		return l
	}
	return l.With(Err(err))
}

// WithComponent returns a new logger with the component field added.
func (l *BaseLogger) WithComponent(component string) Logger {
	return l.With(Component(component))
}

// SetLevel sets the minimum log level.
func (l *BaseLogger) SetLevel(level Level) {
	l.level = level
}

// GetLevel returns the current minimum log level.
func (l *BaseLogger) GetLevel() Level {
	return l.level
}

func (l *BaseLogger) write(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	ev := l.zl.WithLevel(zerologLevel(level))
	for _, f := range l.fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
