package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourvista/internal/status"
	"tourvista/models"
)

func testSession() *models.PaymentSession {
	return &models.PaymentSession{
		GatewayPaymentID: "TR0011abc",
		EventID:          "evt1",
		UserID:           "user1",
		Amount:           decimal.NewFromInt(1200),
		Method:           models.MethodGatewayBkash,
		OrderReference:   "TV1756600000000ABCDEF",
		PhoneNumber:      "01712345678",
		CreatedAt:        time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSessionStore_Put(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)
	session := testSession()

	data, err := json.Marshal(session)
	require.NoError(t, err)
	mock.ExpectSet("paysession:TR0011abc", data, 30*time.Minute).SetVal("OK")

	err = store.Put(context.Background(), session)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_PutWithoutPaymentID(t *testing.T) {
	db, _ := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)

	session := testSession()
	session.GatewayPaymentID = ""

	err := store.Put(context.Background(), session)

	assert.ErrorIs(t, err, status.ErrValidation)
}

func TestSessionStore_GetRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)
	session := testSession()

	data, err := json.Marshal(session)
	require.NoError(t, err)
	mock.ExpectGet("paysession:TR0011abc").SetVal(string(data))

	got, err := store.Get(context.Background(), "TR0011abc")

	require.NoError(t, err)
	assert.Equal(t, session.EventID, got.EventID)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, session.Method, got.Method)
	assert.True(t, session.Amount.Equal(got.Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_GetExpired(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)

	mock.ExpectGet("paysession:TRgone").RedisNil()

	_, err := store.Get(context.Background(), "TRgone")

	assert.ErrorIs(t, err, status.ErrSessionExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_GetRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)

	mock.ExpectGet("paysession:TR0011abc").SetErr(errors.New("connection refused"))

	_, err := store.Get(context.Background(), "TR0011abc")

	require.Error(t, err)
	assert.NotErrorIs(t, err, status.ErrSessionExpired)
}

func TestSessionStore_DeleteIsIdempotent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)

	mock.ExpectDel("paysession:TR0011abc").SetVal(1)
	mock.ExpectDel("paysession:TR0011abc").SetVal(0)

	assert.NoError(t, store.Delete(context.Background(), "TR0011abc"))
	assert.NoError(t, store.Delete(context.Background(), "TR0011abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionStore_ActiveCount(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewSessionStore(db, 30*time.Minute)

	mock.ExpectScan(0, "paysession:*", 100).SetVal([]string{"paysession:a", "paysession:b", "paysession:c"}, 0)

	count, err := store.ActiveCount(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
