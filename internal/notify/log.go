// Package notify keeps the bounded log of user-facing outcomes shown by the
// dashboard. The log lives in memory only and is lost on restart.
package notify

import (
	"sync"
	"time"

	"clinic-dashboard-server/internal/models"
)

// Capacity is the number of entries the log retains.
const Capacity = 10

// Log is a fixed-capacity ring of notifications. The oldest entry is
// overwritten once the ring is full.
type Log struct {
	mu     sync.Mutex
	ring   [Capacity]models.Notification
	head   int // index of the next write
	size   int
	lastID int64
	now    func() time.Time
}

// NewLog returns an empty log. A nil clock means time.Now.
func NewLog(clock func() time.Time) *Log {
	if clock == nil {
		clock = time.Now
	}
	return &Log{now: clock}
}

// Push records an outcome and returns the stored entry.
func (l *Log) Push(kind models.NotificationType, message string) models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now()
	id := ts.UnixNano()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id

	n := models.Notification{ID: id, Type: kind, Message: message, Timestamp: ts}
	l.ring[l.head] = n
	l.head = (l.head + 1) % Capacity
	if l.size < Capacity {
		l.size++
	}
	return n
}

// Success is shorthand for Push(models.NotificationSuccess, message).
func (l *Log) Success(message string) models.Notification {
	return l.Push(models.NotificationSuccess, message)
}

// Error is shorthand for Push(models.NotificationError, message).
func (l *Log) Error(message string) models.Notification {
	return l.Push(models.NotificationError, message)
}

// Entries returns the retained entries, newest first.
func (l *Log) Entries() []models.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Notification, 0, l.size)
	for i := 1; i <= l.size; i++ {
		out = append(out, l.ring[(l.head-i+Capacity)%Capacity])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}
