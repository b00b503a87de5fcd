package mail

import (
	"sync"
	"time"
)

// DefaultErrorLogSize is the number of failures kept by NewErrorLog(0).
const DefaultErrorLogSize = 20

// ErrorEntry is one recorded delivery failure.
type ErrorEntry struct {
	Time  time.Time
	Error string
}

// ErrorLog keeps the most recent delivery failures of the process.
// It is safe for concurrent use.
type ErrorLog struct {
	mu      sync.Mutex
	size    int
	entries []ErrorEntry
	now     func() time.Time
}

// NewErrorLog returns a log keeping at most size entries.
func NewErrorLog(size int) *ErrorLog {
	if size <= 0 {
		size = DefaultErrorLogSize
	}

	return &ErrorLog{size: size, now: time.Now}
}

// Add records err. Nil errors are ignored.
func (l *ErrorLog) Add(err error) {
	if err == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, ErrorEntry{Time: l.now(), Error: err.Error()})
	if len(l.entries) > l.size {
		l.entries = l.entries[len(l.entries)-l.size:]
	}
}

// Entries returns the recorded failures, newest first.
func (l *ErrorLog) Entries() []ErrorEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]ErrorEntry, len(l.entries))
	for i, e := range l.entries {
		out[len(l.entries)-1-i] = e
	}

	return out
}

// Last returns the newest failure and whether there is one.
func (l *ErrorLog) Last() (ErrorEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == 0 {
		return ErrorEntry{}, false
	}

	return l.entries[len(l.entries)-1], true
}

// Clear drops all entries.
func (l *ErrorLog) Clear() {
	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()
}
