// Package audit records install runs as JSON-lines events.
package audit

import (
	"fmt"
	"time"
)

// Event is one audited install run, dry-run or commit.
type Event struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	User      string        `json:"user"`
	Device    string        `json:"device"`
	DevOS     string        `json:"dev_os"`
	Operation string        `json:"operation"`
	Changed   bool          `json:"changed"`
	Committed bool          `json:"committed"`
	DryRun    bool          `json:"dry_run"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Filter defines criteria for querying audit events.
type Filter struct {
	Device      string
	User        string
	StartTime   time.Time
	EndTime     time.Time
	FailureOnly bool
	Limit       int
}

// NewEvent creates a new audit event.
func NewEvent(user, device, devOS, operation string) *Event {
	return &Event{
		ID:        generateID(),
		Timestamp: time.Now(),
		User:      user,
		Device:    device,
		DevOS:     devOS,
		Operation: operation,
	}
}

// WithOutcome records whether the run changed and committed anything.
func (e *Event) WithOutcome(changed, committed, dryRun bool) *Event {
	e.Changed = changed
	e.Committed = committed
	e.DryRun = dryRun
	return e
}

// WithSuccess marks the event as successful.
func (e *Event) WithSuccess() *Event {
	e.Success = true
	return e
}

// WithError marks the event as failed. The caller is responsible for
// scrubbing secrets from err before recording it.
func (e *Event) WithError(errText string) *Event {
	e.Success = false
	e.Error = errText
	return e
}

// WithDuration sets the run duration.
func (e *Event) WithDuration(d time.Duration) *Event {
	e.Duration = d
	return e
}

func generateID() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
