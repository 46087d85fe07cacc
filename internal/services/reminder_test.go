package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/phone"
	"github.com/mesafacil/reservas-backend/internal/session"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

func seedReminderSession(t *testing.T, store *storage.MemoryStore, sessions session.Store) *models.Reservation {
	t.Helper()
	res := &models.Reservation{
		RestaurantID: "r1",
		Date:         "2026-04-16",
		Time:         "21:00",
		PartySize:    4,
		Name:         "Ana",
		Phone:        testPhone,
		Status:       models.ReservationStatusPending,
	}
	require.NoError(t, store.CreateReservation(res))

	ctx := context.Background()
	rem := NewReminderContext(res, time.Now())
	for _, variant := range phone.Variants(testPhone) {
		s := models.NewSession(variant, "r1")
		s.Reminder = rem
		require.NoError(t, sessions.Save(ctx, s))
	}
	return res
}

func TestReminderConfirm(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()
	res := seedReminderSession(t, store, sessions)

	reply, err := d.Handle(ctx, r, testFrom, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "queda confirmada")

	got, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)
	assert.True(t, got.ReminderResponded)
	assert.NotNil(t, got.ConfirmedAt)
}

func TestReminderCancel(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()
	res := seedReminderSession(t, store, sessions)

	reply, err := d.Handle(ctx, r, testFrom, "cancelar")
	require.NoError(t, err)
	assert.Contains(t, reply, "cancelé tu reserva")

	got, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
}

func TestReminderIdempotentAfterTerminalAnswer(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()
	res := seedReminderSession(t, store, sessions)

	_, err := d.Handle(ctx, r, testFrom, "si")
	require.NoError(t, err)

	// A duplicate confirm and a late cancel both leave the
	// reservation untouched and stay silent.
	for _, msg := range []string{"si", "2", "cancelar"} {
		reply, err := d.Handle(ctx, r, testFrom, msg)
		require.NoError(t, err)
		assert.Empty(t, reply, "msg %q", msg)
	}

	got, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)

	// Courtesy closings get a courtesy answer.
	reply, err := d.Handle(ctx, r, testFrom, "gracias!")
	require.NoError(t, err)
	assert.Contains(t, reply, "De nada")
}

func TestReminderUnclearAnswerReprompts(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()
	res := seedReminderSession(t, store, sessions)

	reply, err := d.Handle(ctx, r, testFrom, "quien sos?")
	require.NoError(t, err)
	assert.Contains(t, reply, "*1*")

	got, err := store.GetReservation(res.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationStatusPending, got.Status)
}

func TestReminderResetEscapesToMenu(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()
	seedReminderSession(t, store, sessions)

	reply, err := d.Handle(ctx, r, testFrom, "reset")
	require.NoError(t, err)
	assert.Contains(t, reply, "empezamos de cero")

	s, err := sessions.Get(ctx, r.ID, testPhone)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Nil(t, s.Reminder)
	assert.Equal(t, models.StateIdle, s.State)
}
