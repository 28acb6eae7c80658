// Package notify carries transient user-visible notifications from the
// gateway client and controllers to whatever front end is attached.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one transient message.
type Notification struct {
	ID      string    `json:"id"`
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier receives transient notifications. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Notify(level Level, message string)
}

// Writer prints notifications to a stream, one per line.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Notify(level Level, message string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "[%s] %s\n", level, message)
}

// Buffer retains recent notifications in memory. The web facade drains it
// per poll; tests assert against it.
type Buffer struct {
	mu    sync.Mutex
	items []Notification
	max   int
}

func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = 100
	}
	return &Buffer{max: max}
}

func (b *Buffer) Notify(level Level, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, Notification{
		ID:      uuid.NewString(),
		Level:   level,
		Message: message,
		At:      time.Now(),
	})
	if len(b.items) > b.max {
		b.items = b.items[len(b.items)-b.max:]
	}
}

// Drain returns the buffered notifications and clears the buffer.
func (b *Buffer) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.items
	b.items = nil
	return out
}

// Discard drops every notification. Useful for headless runs.
type Discard struct{}

func (Discard) Notify(Level, string) {}

// Switchable delegates to a replaceable target, so the delivery surface
// can change (stderr for CLI runs, buffer for the web facade) without
// rebuilding everything that holds the notifier.
type Switchable struct {
	mu     sync.RWMutex
	target Notifier
}

func NewSwitchable(target Notifier) *Switchable {
	if target == nil {
		target = Discard{}
	}
	return &Switchable{target: target}
}

func (s *Switchable) Set(target Notifier) {
	if target == nil {
		target = Discard{}
	}
	s.mu.Lock()
	s.target = target
	s.mu.Unlock()
}

func (s *Switchable) Notify(level Level, message string) {
	s.mu.RLock()
	target := s.target
	s.mu.RUnlock()
	target.Notify(level, message)
}
