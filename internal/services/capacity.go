package services

import (
	"fmt"

	"tourvista/internal/store"
	"tourvista/models"
)

// CapacityLedger decides whether a new registration is admitted or
// waitlisted. Occupancy is derived from registration rows inside the
// caller's transaction, never cached, so abandoned checkouts can never
// pin a slot.
type CapacityLedger struct{}

func NewCapacityLedger() *CapacityLedger {
	return &CapacityLedger{}
}

// Admit returns the status a new registration should be created with.
// A participant limit of zero means unlimited.
func (l *CapacityLedger) Admit(tx store.Store, event *models.Event) (string, error) {
	if event.ParticipantLimit <= 0 {
		return models.RegistrationPending, nil
	}

	consuming, err := tx.CountConsuming(event.ID)
	if err != nil {
		return "", fmt.Errorf("admit: %w", err)
	}

	if consuming >= event.ParticipantLimit {
		return models.RegistrationWaitlisted, nil
	}
	return models.RegistrationPending, nil
}

// HasRoom reports whether the event can take one more consuming
// registration. Used when promoting a waitlisted registration.
func (l *CapacityLedger) HasRoom(tx store.Store, event *models.Event) (bool, error) {
	if event.ParticipantLimit <= 0 {
		return true, nil
	}

	consuming, err := tx.CountConsuming(event.ID)
	if err != nil {
		return false, fmt.Errorf("has room: %w", err)
	}

	return consuming < event.ParticipantLimit, nil
}
