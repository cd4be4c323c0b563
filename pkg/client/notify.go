package client

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SeverityError is the only severity the App raises.
const SeverityError = "error"

// Notification is a transient user-facing message.
type Notification struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Severity string    `json:"severity"`
	Created  time.Time `json:"created"`
}

// Notifier receives the notifications raised by App.
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger logrus.FieldLogger
}

func (l LogNotifier) Notify(n Notification) {
	entry := l.Logger.WithFields(logrus.Fields{"title": n.Title, "severity": n.Severity})
	if n.Severity == SeverityError {
		entry.Error(n.Body)
		return
	}
	entry.Info(n.Body)
}

// Queue keeps the most recent notifications until they expire. Nothing tracks dismissal.
type Queue struct {
	mu    sync.Mutex
	items []Notification
	limit int
	ttl   time.Duration
	now   func() time.Time
}

// NewQueue keeps at most limit notifications, each for ttl.
func NewQueue(limit int, ttl time.Duration) *Queue {
	if limit <= 0 {
		limit = 1
	}
	return &Queue{limit: limit, ttl: ttl, now: time.Now}
}

func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n.Created.IsZero() {
		n.Created = q.now()
	}
	q.prune()
	q.items = append(q.items, n)
	if over := len(q.items) - q.limit; over > 0 {
		q.items = append(q.items[:0:0], q.items[over:]...)
	}
}

// Active returns the notifications that have not expired, oldest first.
func (q *Queue) Active() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.prune()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// prune drops expired notifications. Assumes lock is held.
func (q *Queue) prune() {
	cutoff := q.now().Add(-q.ttl)
	keep := q.items[:0]
	for _, n := range q.items {
		if n.Created.After(cutoff) {
			keep = append(keep, n)
		}
	}
	q.items = keep
}

// multiNotifier fans a notification out to several sinks.
type multiNotifier []Notifier

// Tee returns a Notifier that forwards to every given notifier.
func Tee(notifiers ...Notifier) Notifier {
	return multiNotifier(notifiers)
}

func (m multiNotifier) Notify(n Notification) {
	for _, nt := range m {
		nt.Notify(n)
	}
}
