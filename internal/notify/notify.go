// Package notify delivers feed reports to the user and to the logs.
package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/steemit/feedsync/internal/feed"
)

// Log writes reports to a zap logger. Sign-in prompts are logged at info, failures at warn.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging notifier
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger.With(zap.String("component", "notifier"))}
}

// Report implements feed.Notifier
func (l *Log) Report(kind feed.Kind, message string) {
	fields := []zap.Field{zap.String("kind", string(kind))}
	if kind == feed.KindAuthenticationRequired {
		l.logger.Info(message, fields...)
		return
	}
	l.logger.Warn(message, fields...)
}

// Console prints one line per report, the way a toast would show it
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a notifier writing to w
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Report implements feed.Notifier
func (c *Console) Report(kind feed.Kind, message string) {
	prefix := "error"
	if kind == feed.KindAuthenticationRequired {
		prefix = "sign in"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "[%s] %s\n", prefix, message)
}

// Multi fans a report out to several notifiers
type Multi []feed.Notifier

// Report implements feed.Notifier
func (m Multi) Report(kind feed.Kind, message string) {
	for _, n := range m {
		if n != nil {
			n.Report(kind, message)
		}
	}
}
