package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/session"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

const (
	testFrom  = "whatsapp:+5491123456789"
	testPhone = "+5491123456789"
)

var testNow = time.Date(2026, 4, 15, 10, 0, 0, 0, time.UTC)

func newTestDialog(t *testing.T) (*Dialog, *storage.MemoryStore, session.Store, *models.Restaurant) {
	t.Helper()
	store := storage.NewMemoryStore()
	sessions := session.NewMemoryStore()

	r := &models.Restaurant{
		ID:           "r1",
		Name:         "La Parrilla",
		Capacity:     10,
		ContactPhone: "011-4555-0000",
	}
	store.AddRestaurant(r)

	d := NewDialog(store, sessions).WithClock(func() time.Time { return testNow })
	return d, store, sessions, r
}

func stateOf(t *testing.T, sessions session.Store, restaurantID string) models.DialogState {
	t.Helper()
	s, err := sessions.Get(context.Background(), restaurantID, testPhone)
	require.NoError(t, err)
	require.NotNil(t, s)
	return s.State
}

func TestRichFirstMessageJumpsToConfirmation(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	reply, err := d.Handle(ctx, r, testFrom, "quiero reservar mañana a las 21 para 4")
	require.NoError(t, err)

	assert.Contains(t, reply, "16/04/2026")
	assert.Contains(t, reply, "21:00")
	assert.Contains(t, reply, "4 personas")
	assert.Equal(t, models.StateAwaitingInitialOK, stateOf(t, sessions, r.ID))
}

func TestFullReservationFlow(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()

	steps := []struct {
		msg       string
		wantState models.DialogState
	}{
		{"hola, quiero reservar", models.StateAwaitingDate},
		{"mañana a las 21", models.StateAwaitingPartySize},
		{"somos 4", models.StateAwaitingInitialOK},
		{"si", models.StateAwaitingName},
		{"Ana García", models.StateAwaitingPhone},
		{"este", models.StateAwaitingEmail},
		{"ana@example.com", models.StateAwaitingFinalConfirm},
	}
	for _, step := range steps {
		_, err := d.Handle(ctx, r, testFrom, step.msg)
		require.NoError(t, err)
		assert.Equal(t, step.wantState, stateOf(t, sessions, r.ID), "after %q", step.msg)
	}

	reply, err := d.Handle(ctx, r, testFrom, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "Reserva confirmada")

	// The conversation is done: the session is gone.
	s, err := sessions.Get(ctx, r.ID, testPhone)
	require.NoError(t, err)
	assert.Nil(t, s)

	saved, err := store.ReservationsNeedingReminder("2026-04-16")
	require.NoError(t, err)
	require.Len(t, saved, 1)
	got := saved[0]
	assert.Equal(t, "2026-04-16", got.Date)
	assert.Equal(t, "21:00", got.Time)
	assert.Equal(t, 4, got.PartySize)
	assert.Equal(t, "Ana García", got.Name)
	assert.Equal(t, testPhone, got.Phone)
	assert.Equal(t, "ana@example.com", got.Email)
	assert.Equal(t, models.ReservationStatusConfirmed, got.Status)
	assert.Equal(t, "whatsapp", got.Origin)
}

func TestCapacityRejectedInState(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()

	booked := models.Reservation{
		RestaurantID: r.ID, Date: "2026-04-16", Time: "21:00",
		PartySize: 8, Status: models.ReservationStatusConfirmed,
	}
	require.NoError(t, store.CreateReservation(&booked))

	_, err := d.Handle(ctx, r, testFrom, "quiero reservar")
	require.NoError(t, err)
	_, err = d.Handle(ctx, r, testFrom, "mañana a las 21")
	require.NoError(t, err)

	reply, err := d.Handle(ctx, r, testFrom, "3")
	require.NoError(t, err)
	assert.Contains(t, reply, "2 lugares")
	assert.Equal(t, models.StateAwaitingPartySize, stateOf(t, sessions, r.ID))

	// A smaller group fits.
	_, err = d.Handle(ctx, r, testFrom, "2")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingInitialOK, stateOf(t, sessions, r.ID))
}

func TestPastAndFarDatesRejected(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	_, err := d.Handle(ctx, r, testFrom, "quiero reservar")
	require.NoError(t, err)

	reply, err := d.Handle(ctx, r, testFrom, "el 01/01/2026 a las 21")
	require.NoError(t, err)
	assert.Contains(t, reply, "ya pasó")
	assert.Equal(t, models.StateAwaitingDate, stateOf(t, sessions, r.ID))

	reply, err = d.Handle(ctx, r, testFrom, "el 01/08/2026 a las 21")
	require.NoError(t, err)
	assert.Contains(t, reply, "30 días")
	assert.Equal(t, models.StateAwaitingDate, stateOf(t, sessions, r.ID))

	_, err = d.Handle(ctx, r, testFrom, "pasado mañana a las 21")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingPartySize, stateOf(t, sessions, r.ID))
}

func TestMenuInterruptEscapesDialog(t *testing.T) {
	states := []models.DialogState{
		models.StateAwaitingDate,
		models.StateAwaitingPartySize,
		models.StateAwaitingInitialOK,
		models.StateAwaitingName,
		models.StateAwaitingPhone,
		models.StateAwaitingEmail,
		models.StateAwaitingFinalConfirm,
	}
	for _, state := range states {
		t.Run(string(state), func(t *testing.T) {
			d, _, sessions, r := newTestDialog(t)
			ctx := context.Background()

			sess := models.NewSession(testPhone, r.ID)
			sess.State = state
			sess.Draft = models.ReservationDraft{Date: "16/04/2026", Time: "21:00", PartySize: 4}
			require.NoError(t, sessions.Save(ctx, sess))

			// A topic change wipes the flow and is answered by the
			// menu path, never by the pending prompt.
			reply, err := d.Handle(ctx, r, testFrom, "¿qué tienen de menú?")
			require.NoError(t, err)
			assert.Contains(t, reply, "carta")
			assert.NotContains(t, reply, "personas")
			assert.Equal(t, models.StateIdle, stateOf(t, sessions, r.ID))

			got, err := sessions.Get(ctx, r.ID, testPhone)
			require.NoError(t, err)
			assert.Empty(t, got.Draft.Date)
		})
	}
}

func TestFeedbackMidDialogDoesNotBecomeName(t *testing.T) {
	d, store, sessions, r := newTestDialog(t)
	ctx := context.Background()

	for _, msg := range []string{"quiero reservar mañana a las 21 para 4", "si"} {
		_, err := d.Handle(ctx, r, testFrom, msg)
		require.NoError(t, err)
	}
	require.Equal(t, models.StateAwaitingName, stateOf(t, sessions, r.ID))

	reply, err := d.Handle(ctx, r, testFrom, "pésimo servicio, me pareció horrible")
	require.NoError(t, err)
	assert.Contains(t, reply, "Gracias por tu comentario")
	require.Equal(t, 1, store.FeedbackCount())
	assert.Equal(t, 1, store.FeedbackEntries()[0].Rating)

	// The detour keeps the collected slots; a real name still lands.
	require.Equal(t, models.StateAwaitingName, stateOf(t, sessions, r.ID))
	_, err = d.Handle(ctx, r, testFrom, "Ana García")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingPhone, stateOf(t, sessions, r.ID))
}

func TestDateAndSizeOneShotSkipsIntermediateStates(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	// Date plus size alone carry enough confidence to go straight to
	// the one-shot confirmation.
	reply, err := d.Handle(ctx, r, testFrom, "quiero reservar mañana para 4")
	require.NoError(t, err)
	assert.Contains(t, reply, "16/04/2026")
	assert.Contains(t, reply, "hora a coordinar")
	assert.Equal(t, models.StateAwaitingInitialOK, stateOf(t, sessions, r.ID))

	_, err = d.Handle(ctx, r, testFrom, "si")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingName, stateOf(t, sessions, r.ID))
}

type failingStore struct {
	*storage.MemoryStore
}

func (f *failingStore) CreateReservation(r *models.Reservation) error {
	return errors.New("connection refused")
}

func TestPersistFailureResetsDialog(t *testing.T) {
	mem := storage.NewMemoryStore()
	mem.AddRestaurant(&models.Restaurant{ID: "r1", Name: "La Parrilla", Capacity: 10, ContactPhone: "011-4555-0000"})
	sessions := session.NewMemoryStore()
	d := NewDialog(&failingStore{mem}, sessions).WithClock(func() time.Time { return testNow })
	r, err := mem.GetRestaurant("r1")
	require.NoError(t, err)
	ctx := context.Background()

	for _, msg := range []string{"quiero reservar mañana a las 21 para 4", "si", "Ana García", "este", "no"} {
		_, err := d.Handle(ctx, r, testFrom, msg)
		require.NoError(t, err)
	}

	reply, err := d.Handle(ctx, r, testFrom, "1")
	require.NoError(t, err)
	assert.Contains(t, reply, "No pude guardar")
	assert.Equal(t, models.StateIdle, stateOf(t, sessions, r.ID))
}

func TestCancelMidFlow(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	_, err := d.Handle(ctx, r, testFrom, "quiero reservar mañana a las 21 para 4")
	require.NoError(t, err)
	require.Equal(t, models.StateAwaitingInitialOK, stateOf(t, sessions, r.ID))

	reply, err := d.Handle(ctx, r, testFrom, "no")
	require.NoError(t, err)
	assert.Contains(t, reply, "no avanzo")
	assert.Equal(t, models.StateIdle, stateOf(t, sessions, r.ID))
}

func TestResetWordWipesDialog(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	_, err := d.Handle(ctx, r, testFrom, "quiero reservar mañana a las 21 para 4")
	require.NoError(t, err)

	reply, err := d.Handle(ctx, r, testFrom, "reset")
	require.NoError(t, err)
	assert.Contains(t, reply, "empezamos de cero")
	assert.Equal(t, models.StateIdle, stateOf(t, sessions, r.ID))
}

func TestNameRejectsCommandsAndShortInput(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	_, err := d.Handle(ctx, r, testFrom, "quiero reservar mañana a las 21 para 4")
	require.NoError(t, err)
	_, err = d.Handle(ctx, r, testFrom, "si")
	require.NoError(t, err)

	// Command words are no valid name. "menu" is not covered here
	// because it escapes the dialog entirely.
	for _, bad := range []string{"x", "reservar"} {
		_, err = d.Handle(ctx, r, testFrom, bad)
		require.NoError(t, err)
		assert.Equal(t, models.StateAwaitingName, stateOf(t, sessions, r.ID), "input %q", bad)
	}

	_, err = d.Handle(ctx, r, testFrom, "Juan Pérez")
	require.NoError(t, err)
	assert.Equal(t, models.StateAwaitingPhone, stateOf(t, sessions, r.ID))
}

func TestEmailValidationAndSkip(t *testing.T) {
	d, _, sessions, r := newTestDialog(t)
	ctx := context.Background()

	for _, msg := range []string{"quiero reservar mañana a las 21 para 4", "si", "Juan Pérez", "este"} {
		_, err := d.Handle(ctx, r, testFrom, msg)
		require.NoError(t, err)
	}
	require.Equal(t, models.StateAwaitingEmail, stateOf(t, sessions, r.ID))

	reply, err := d.Handle(ctx, r, testFrom, "no es un email")
	require.NoError(t, err)
	assert.Contains(t, reply, "no parece válido")
	assert.Equal(t, models.StateAwaitingEmail, stateOf(t, sessions, r.ID))

	reply, err = d.Handle(ctx, r, testFrom, "no")
	require.NoError(t, err)
	assert.Contains(t, reply, "(sin email)")
	assert.Equal(t, models.StateAwaitingFinalConfirm, stateOf(t, sessions, r.ID))
}

func TestFeedbackCaptured(t *testing.T) {
	d, store, _, r := newTestDialog(t)
	ctx := context.Background()

	reply, err := d.Handle(ctx, r, testFrom, "tengo una queja sobre el servicio de ayer")
	require.NoError(t, err)
	assert.Contains(t, reply, "Gracias por tu comentario")
	assert.Equal(t, 1, store.FeedbackCount())
}

func TestRepeatedUnknownRedirectsToPhone(t *testing.T) {
	d, _, _, r := newTestDialog(t)
	ctx := context.Background()

	var reply string
	var err error
	for i := 0; i < 3; i++ {
		reply, err = d.Handle(ctx, r, testFrom, "zzz qwerty")
		require.NoError(t, err)
	}
	assert.Contains(t, reply, "011-4555-0000")
}

func TestGreetingAndMenuOutsideFlow(t *testing.T) {
	d, _, _, r := newTestDialog(t)
	ctx := context.Background()

	reply, err := d.Handle(ctx, r, testFrom, "hola!")
	require.NoError(t, err)
	assert.Contains(t, reply, "La Parrilla")

	reply, err = d.Handle(ctx, r, testFrom, "ver la carta")
	require.NoError(t, err)
	assert.Contains(t, reply, "carta")
}
