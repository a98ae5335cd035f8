package testing

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gwerks/gwerks/internal/provisioning"
)

// RecordingObserver is a test implementation of Observer that records events.
type RecordingObserver struct {
	mu     *sync.Mutex
	events *[]provisioning.Event
	fields map[string]string
}

// NewRecordingObserver creates an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{
		mu:     &sync.Mutex{},
		events: &[]provisioning.Event{},
		fields: map[string]string{},
	}
}

// Printf implements provisioning.Logger.
func (r *RecordingObserver) Printf(format string, v ...any) {
	r.Event(provisioning.Event{Level: provisioning.LevelInfo, Message: fmt.Sprintf(format, v...)})
}

// Event implements provisioning.Observer.
func (r *RecordingObserver) Event(event provisioning.Event) {
	if len(r.fields) > 0 {
		merged := make(map[string]string, len(r.fields)+len(event.Fields))
		for k, v := range r.fields {
			merged[k] = v
		}
		for k, v := range event.Fields {
			merged[k] = v
		}
		event.Fields = merged
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.events = append(*r.events, event)
}

// WithFields implements provisioning.Observer. The child shares the
// parent's event log.
func (r *RecordingObserver) WithFields(fields map[string]string) provisioning.Observer {
	merged := make(map[string]string, len(r.fields)+len(fields))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &RecordingObserver{mu: r.mu, events: r.events, fields: merged}
}

// Events returns a copy of every recorded event.
func (r *RecordingObserver) Events() []provisioning.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]provisioning.Event(nil), *r.events...)
}

// Messages returns the recorded messages at level, or all messages when
// level is empty.
func (r *RecordingObserver) Messages(level provisioning.Level) []string {
	var out []string
	for _, e := range r.Events() {
		if level == "" || e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any recorded message contains substr.
func (r *RecordingObserver) Contains(substr string) bool {
	for _, msg := range r.Messages("") {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
