// Package notify defines user-facing notifications and an in-memory buffer
// of recent ones.
package notify

import (
	"sync"
	"time"
)

// Level represents the severity of a notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification represents a single notification event.
type Notification struct {
	ID        int64
	Level     Level
	Message   string
	CreatedAt time.Time
}

// Buffer keeps the most recent notifications, oldest evicted first.
type Buffer struct {
	mu     sync.Mutex
	max    int
	nextID int64
	items  []Notification
}

// NewBuffer returns a buffer holding at most max notifications.
func NewBuffer(max int) *Buffer {
	if max <= 0 {
		max = 1
	}
	return &Buffer{max: max}
}

// Push records a notification, assigning its ID and timestamp.
func (b *Buffer) Push(level Level, msg string) Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	n := Notification{ID: b.nextID, Level: level, Message: msg, CreatedAt: time.Now()}
	b.items = append(b.items, n)
	if len(b.items) > b.max {
		b.items = b.items[len(b.items)-b.max:]
	}
	return n
}

// List returns the buffered notifications, newest first.
func (b *Buffer) List() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notification, len(b.items))
	for i, n := range b.items {
		out[len(b.items)-1-i] = n
	}
	return out
}

// Clear drops all buffered notifications.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = nil
}
