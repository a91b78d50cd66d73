package models

import (
	"time"
)

const (
	RegistrationPending    = "pending"
	RegistrationApproved   = "approved"
	RegistrationRejected   = "rejected"
	RegistrationWaitlisted = "waitlisted"

	PaymentStatusUnpaid   = "unpaid"
	PaymentStatusPaid     = "paid"
	PaymentStatusRefunded = "refunded"
)

type Registration struct {
	ID            string    `json:"id"`
	EventID       string    `json:"event_id"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`         // pending, approved, rejected, waitlisted
	PaymentStatus string    `json:"payment_status"` // unpaid, paid, refunded
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ConsumesCapacity reports whether the registration counts against the
// event's participant limit.
func (r *Registration) ConsumesCapacity() bool {
	return r.Status == RegistrationPending || r.Status == RegistrationApproved
}
