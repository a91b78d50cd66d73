package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"tourvista/internal/status"
	"tourvista/models"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

const (
	collectionEvents        = "events"
	collectionRegistrations = "registrations"
	collectionPayments      = "payments"
)

// PBStore implements Store on top of a PocketBase app. Transactions map to
// app.RunInTransaction; SQLite's single-writer model gives the serializable
// count-compare-insert the capacity ledger needs.
type PBStore struct {
	app core.App
}

func NewPBStore(app core.App) *PBStore {
	return &PBStore{app: app}
}

func (s *PBStore) RunInTransaction(fn func(tx Store) error) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		return fn(&PBStore{app: txApp})
	})
}

func (s *PBStore) FindEvent(id string) (*models.Event, error) {
	record, err := s.app.FindRecordById(collectionEvents, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, fmt.Errorf("FindEvent: %w", err)
	}

	return &models.Event{
		ID:               record.Id,
		Title:            record.GetString("title"),
		Status:           record.GetString("status"),
		ParticipantLimit: record.GetInt("participant_limit"),
		Cost:             decimal.NewFromFloat(record.GetFloat("cost")),
	}, nil
}

func (s *PBStore) CountConsuming(eventID string) (int, error) {
	total, err := s.app.CountRecords(collectionRegistrations,
		dbx.HashExp{"event": eventID},
		dbx.In("status", models.RegistrationPending, models.RegistrationApproved),
	)
	if err != nil {
		return 0, fmt.Errorf("CountConsuming: %w", err)
	}
	return int(total), nil
}

func (s *PBStore) FindRegistration(eventID, userID string) (*models.Registration, error) {
	record, err := s.app.FindFirstRecordByFilter(collectionRegistrations,
		"event = {:event} && user = {:user}",
		dbx.Params{"event": eventID, "user": userID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("FindRegistration: %w", err)
	}
	return recordToRegistration(record), nil
}

func (s *PBStore) FindRegistrationByID(id string) (*models.Registration, error) {
	record, err := s.app.FindRecordById(collectionRegistrations, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("FindRegistrationByID: %w", err)
	}
	return recordToRegistration(record), nil
}

func (s *PBStore) CreateRegistration(r *models.Registration) error {
	collection, err := s.app.FindCollectionByNameOrId(collectionRegistrations)
	if err != nil {
		return fmt.Errorf("CreateRegistration: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("event", r.EventID)
	record.Set("user", r.UserID)
	record.Set("status", r.Status)
	record.Set("payment_status", r.PaymentStatus)
	record.Set("notes", r.Notes)

	if err := s.app.Save(record); err != nil {
		if isUniqueViolation(err) {
			return status.ErrAlreadyRegistered
		}
		return fmt.Errorf("CreateRegistration: %w", err)
	}

	r.ID = record.Id
	r.CreatedAt = record.GetDateTime("created").Time()
	return nil
}

func (s *PBStore) UpdateRegistration(r *models.Registration) error {
	record, err := s.app.FindRecordById(collectionRegistrations, r.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrRegistrationNotFound
		}
		return fmt.Errorf("UpdateRegistration: %w", err)
	}

	record.Set("status", r.Status)
	record.Set("payment_status", r.PaymentStatus)
	record.Set("notes", r.Notes)

	if err := s.app.Save(record); err != nil {
		return fmt.Errorf("UpdateRegistration: %w", err)
	}
	return nil
}

func (s *PBStore) DeleteRegistration(id string) error {
	record, err := s.app.FindRecordById(collectionRegistrations, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrRegistrationNotFound
		}
		return fmt.Errorf("DeleteRegistration: %w", err)
	}
	if err := s.app.Delete(record); err != nil {
		return fmt.Errorf("DeleteRegistration: %w", err)
	}
	return nil
}

func (s *PBStore) FindPaymentByID(id string) (*models.Payment, error) {
	record, err := s.app.FindRecordById(collectionPayments, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("FindPaymentByID: %w", err)
	}
	return recordToPayment(record), nil
}

func (s *PBStore) FindPaymentByReference(ref string) (*models.Payment, error) {
	record, err := s.app.FindFirstRecordByFilter(collectionPayments,
		"transaction_id = {:ref}",
		dbx.Params{"ref": ref},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("FindPaymentByReference: %w", err)
	}
	return recordToPayment(record), nil
}

func (s *PBStore) FindActivePayment(registrationID string) (*models.Payment, error) {
	record, err := s.app.FindFirstRecordByFilter(collectionPayments,
		"registration = {:registration} && status != {:failed}",
		dbx.Params{"registration": registrationID, "failed": models.PaymentFailed},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("FindActivePayment: %w", err)
	}
	return recordToPayment(record), nil
}

func (s *PBStore) CreatePayment(p *models.Payment) error {
	collection, err := s.app.FindCollectionByNameOrId(collectionPayments)
	if err != nil {
		return fmt.Errorf("CreatePayment: %w", err)
	}

	record := core.NewRecord(collection)
	record.Set("registration", p.RegistrationID)
	record.Set("event", p.EventID)
	record.Set("user", p.UserID)
	record.Set("amount", p.Amount.InexactFloat64())
	record.Set("payment_method", p.Method)
	record.Set("phone_number", p.PhoneNumber)
	record.Set("transaction_id", p.TransactionReference)
	record.Set("status", p.Status)
	record.Set("admin_notes", p.AdminNotes)

	if err := s.app.Save(record); err != nil {
		if isUniqueViolation(err) {
			return status.ErrDuplicateTransaction
		}
		return fmt.Errorf("CreatePayment: %w", err)
	}

	p.ID = record.Id
	p.CreatedAt = record.GetDateTime("created").Time()
	return nil
}

func (s *PBStore) UpdatePayment(p *models.Payment) error {
	record, err := s.app.FindRecordById(collectionPayments, p.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return status.ErrPaymentNotFound
		}
		return fmt.Errorf("UpdatePayment: %w", err)
	}

	record.Set("status", p.Status)
	record.Set("admin_notes", p.AdminNotes)
	record.Set("transaction_id", p.TransactionReference)

	if err := s.app.Save(record); err != nil {
		if isUniqueViolation(err) {
			return status.ErrDuplicateTransaction
		}
		return fmt.Errorf("UpdatePayment: %w", err)
	}
	return nil
}

func recordToRegistration(record *core.Record) *models.Registration {
	return &models.Registration{
		ID:            record.Id,
		EventID:       record.GetString("event"),
		UserID:        record.GetString("user"),
		Status:        record.GetString("status"),
		PaymentStatus: record.GetString("payment_status"),
		Notes:         record.GetString("notes"),
		CreatedAt:     record.GetDateTime("created").Time(),
	}
}

func recordToPayment(record *core.Record) *models.Payment {
	return &models.Payment{
		ID:                   record.Id,
		RegistrationID:       record.GetString("registration"),
		EventID:              record.GetString("event"),
		UserID:               record.GetString("user"),
		Amount:               decimal.NewFromFloat(record.GetFloat("amount")),
		Method:               record.GetString("payment_method"),
		PhoneNumber:          record.GetString("phone_number"),
		TransactionReference: record.GetString("transaction_id"),
		Status:               record.GetString("status"),
		AdminNotes:           record.GetString("admin_notes"),
		CreatedAt:            record.GetDateTime("created").Time(),
	}
}

// isUniqueViolation matches both the raw SQLite error and PocketBase's
// unique-index validation message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "must be unique") ||
		strings.Contains(msg, "validation_not_unique")
}
