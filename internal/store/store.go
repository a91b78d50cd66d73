package store

import (
	"tourvista/models"
)

// Store is the durable persistence boundary for registrations and payments.
// Every coordinator operation that touches more than one entity (or an
// entity plus the capacity count) runs inside RunInTransaction so that
// concurrent registration attempts observe a consistent consumed-count.
//
// Implementations return the sentinel errors from internal/status for
// missing rows and uniqueness conflicts so callers can branch on them.
type Store interface {
	// RunInTransaction executes fn against a transactional view of the
	// store. The uniqueness constraints (one registration per event+user,
	// globally unique transaction reference) are enforced by the backing
	// database, not by pre-checks.
	RunInTransaction(fn func(tx Store) error) error

	FindEvent(id string) (*models.Event, error)

	// CountConsuming returns the number of registrations in a
	// capacity-consuming status (pending or approved) for the event.
	CountConsuming(eventID string) (int, error)

	FindRegistration(eventID, userID string) (*models.Registration, error)
	FindRegistrationByID(id string) (*models.Registration, error)
	CreateRegistration(r *models.Registration) error
	UpdateRegistration(r *models.Registration) error
	DeleteRegistration(id string) error

	FindPaymentByID(id string) (*models.Payment, error)
	FindPaymentByReference(ref string) (*models.Payment, error)
	// FindActivePayment returns the registration's non-failed payment, if
	// any. Failed payments accumulate as history and are ignored here.
	FindActivePayment(registrationID string) (*models.Payment, error)
	CreatePayment(p *models.Payment) error
	UpdatePayment(p *models.Payment) error
}
