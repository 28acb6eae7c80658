package logger

import (
	"io"
	"log"
	"os"
)

// Logger wraps the standard log.Logger with a component prefix so output
// from the gateway client, stream and controllers can be told apart.
type Logger struct {
	*log.Logger
	prefix string
}

// New creates a logger writing to stderr with the given component prefix.
func New(prefix string) *Logger {
	return NewWithWriter(os.Stderr, prefix)
}

// NewWithWriter creates a logger writing to w. Tests pass io.Discard.
func NewWithWriter(w io.Writer, prefix string) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags),
		prefix: prefix,
	}
}

func (l *Logger) Infof(format string, v ...any) {
	l.Printf("INFO - [%s] - "+format, append([]any{l.prefix}, v...)...)
}

func (l *Logger) Warnf(format string, v ...any) {
	l.Printf("WARN - [%s] - "+format, append([]any{l.prefix}, v...)...)
}

func (l *Logger) Errorf(format string, v ...any) {
	l.Printf("ERROR - [%s] - "+format, append([]any{l.prefix}, v...)...)
}

// WithPrefix returns a logger sharing the same writer under another prefix.
func (l *Logger) WithPrefix(prefix string) *Logger {
	return &Logger{Logger: l.Logger, prefix: prefix}
}
