// Package progress defines the events an analysis run emits while it works.
package progress

import (
	"sync"
	"time"
)

// event types in the order a run emits them
const (
	TypeStarted         = "started"
	TypePromptCompleted = "prompt_completed"
	TypePromptFailed    = "prompt_failed"
	TypeCompleted       = "completed"
	TypeFailed          = "failed"
)

type Event struct {
	Type      string    `json:"type"`
	ReportID  string    `json:"reportId"`
	Prompt    string    `json:"prompt,omitempty"`
	Completed int       `json:"completed"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// reports whether no further events follow e for its report
func (e Event) Terminal() bool {
	return e.Type == TypeCompleted || e.Type == TypeFailed
}

// receives run events; implementations must not block
type Publisher interface {
	Publish(e Event)
}

// publisher that drops every event
type Discard struct{}

func (Discard) Publish(Event) {}

// publisher that keeps every event, safe for concurrent use
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// returns a copy of the events recorded so far
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// returns the recorded event types in order
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Type)
	}

	return out
}

// fans events out to several publishers
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}
