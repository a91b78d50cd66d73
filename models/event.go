package models

import (
	"github.com/shopspring/decimal"
)

const (
	EventStatusOpen      = "open"
	EventStatusClosed    = "closed"
	EventStatusFull      = "full"
	EventStatusCancelled = "cancelled"
)

// Event is owned by the event-management subsystem; the registration engine
// only reads its status, capacity and cost.
type Event struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Status           string          `json:"status"` // open, closed, full, cancelled
	ParticipantLimit int             `json:"participant_limit"`
	Cost             decimal.Decimal `json:"cost"`
}

// AcceptingRegistrations reports whether new registrations may be created.
// A full event still accepts them; they are waitlisted instead.
func (e *Event) AcceptingRegistrations() bool {
	return e.Status != EventStatusClosed && e.Status != EventStatusCancelled
}
