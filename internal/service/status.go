package service

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrValidation marks user-input errors caught before any network call
var ErrValidation = errors.New("validation failed")

// Status is the single message slot shown to the user. At most one of
// Notice and Error is set.
type Status struct {
	Notice    string    `json:"notice,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status returns the current status slot
func (d *Dashboard) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// ClearStatus empties the status slot
func (d *Dashboard) ClearStatus() {
	d.setStatus(Status{})
}

func (d *Dashboard) notify(format string, args ...any) {
	d.setStatus(Status{Notice: fmt.Sprintf(format, args...)})
}

// fail records err in the status slot and returns it unchanged
func (d *Dashboard) fail(err error) error {
	if err == nil {
		return nil
	}
	log.Printf("Dashboard error: %v", err)
	d.setStatus(Status{Error: err.Error()})
	return err
}

func (d *Dashboard) setStatus(s Status) {
	s.UpdatedAt = time.Now()
	d.mu.Lock()
	d.status = s
	d.mu.Unlock()
	d.events.Publish(Event{Type: EventStatusChanged, Payload: s})
}
