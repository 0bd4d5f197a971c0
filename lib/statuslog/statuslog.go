// Package statuslog keeps the human-readable, append-only status channel a
// user watches while capturing.
package statuslog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const subscriberBuffer = 64

// Entry is one status line.
type Entry struct {
	Time    time.Time
	Message string
}

// Log is an append-only list of status lines. Lines are kept in the order
// they were appended and fanned out to live subscribers.
type Log struct {
	mu      sync.Mutex
	logger  *slog.Logger
	entries []Entry
	subs    map[chan string]struct{}
}

func New(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		logger: logger,
		subs:   make(map[chan string]struct{}),
	}
}

// Logf appends a formatted line.
func (l *Log) Logf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	l.entries = append(l.entries, Entry{Time: time.Now(), Message: msg})
	for ch := range l.subs {
		// slow subscribers lose lines rather than stall capture
		select {
		case ch <- msg:
		default:
		}
	}
	l.mu.Unlock()

	l.logger.Info("status", "message", msg)
}

// Lines returns a snapshot of every message so far.
func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.linesLocked()
}

func (l *Log) linesLocked() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Message
	}
	return out
}

// String renders the log newline-delimited, one message per line.
func (l *Log) String() string {
	lines := l.Lines()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Subscribe streams lines appended after the call until ctx is done, at
// which point the channel is closed.
func (l *Log) Subscribe(ctx context.Context) <-chan string {
	_, live := l.Follow(ctx)
	return live
}

// Follow returns every line so far and a channel carrying the lines appended
// after it. Each line lands in exactly one of the two. The channel is closed
// once ctx is done.
func (l *Log) Follow(ctx context.Context) ([]string, <-chan string) {
	ch := make(chan string, subscriberBuffer)
	l.mu.Lock()
	backlog := l.linesLocked()
	l.subs[ch] = struct{}{}
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		l.mu.Lock()
		delete(l.subs, ch)
		close(ch)
		l.mu.Unlock()
	}()
	return backlog, ch
}
