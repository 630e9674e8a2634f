// Package notify defines the user-visible notification sink used when a
// background operation fails.
package notify

import "sync"

// Kind is the severity of a notification.
type Kind string

const (
	KindError Kind = "error"
	KindInfo  Kind = "info"
)

// Notifier shows a short message to the user. Calls must not block.
type Notifier interface {
	Notify(kind Kind, title, message string)
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Kind, string, string) {}

// Func adapts a function to the Notifier interface.
type Func func(kind Kind, title, message string)

func (f Func) Notify(kind Kind, title, message string) { f(kind, title, message) }

// Notification is one recorded call to Notify.
type Notification struct {
	Kind    Kind
	Title   string
	Message string
}

// Recorder keeps every notification in memory. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Notification
}

func (r *Recorder) Notify(kind Kind, title, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Notification{Kind: kind, Title: title, Message: message})
}

// Notifications returns a copy of what was recorded so far.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many notifications of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// Multi fans a notification out to several sinks.
type Multi []Notifier

func (m Multi) Notify(kind Kind, title, message string) {
	for _, n := range m {
		n.Notify(kind, title, message)
	}
}

// Standard titles and messages.
const (
	TitleError             = "Error"
	MessageOperationFailed = "Operation failed"
)

// OperationFailed emits the standard error notification for a failed remote call.
func OperationFailed(n Notifier) {
	n.Notify(KindError, TitleError, MessageOperationFailed)
}
