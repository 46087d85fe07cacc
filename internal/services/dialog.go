package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/nlp"
	"github.com/mesafacil/reservas-backend/internal/phone"
	"github.com/mesafacil/reservas-backend/internal/session"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

// Booking limits.
const (
	maxPartySize  = 20
	maxDaysAhead  = 30
	maxRedirects  = 2
	shortIDLength = 8
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Completer produces a free-form answer when no rule matches. Satisfied
// by AIResponder; nil disables the fallback.
type Completer interface {
	Complete(ctx context.Context, r *models.Restaurant, question string) (string, error)
}

// Mailer sends reservation confirmation emails. Nil disables email.
type Mailer interface {
	SendConfirmation(r *models.Restaurant, res *models.Reservation) error
}

// Dialog is the conversation engine: one Handle call per inbound
// message, reply text out.
type Dialog struct {
	store    storage.Store
	sessions session.Store
	ai       Completer
	mailer   Mailer
	loc      *time.Location
	now      func() time.Time
}

// NewDialog wires the engine. AI and mail are optional, set them with
// WithAI / WithMailer.
func NewDialog(store storage.Store, sessions session.Store) *Dialog {
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	if err != nil {
		loc = time.FixedZone("ART", -3*60*60)
	}
	return &Dialog{
		store:    store,
		sessions: sessions,
		loc:      loc,
		now:      time.Now,
	}
}

// WithAI enables the model-backed fallback responder.
func (d *Dialog) WithAI(c Completer) *Dialog {
	d.ai = c
	return d
}

// WithMailer enables confirmation emails.
func (d *Dialog) WithMailer(m Mailer) *Dialog {
	d.mailer = m
	return d
}

// WithClock fixes the reference time. Test helper.
func (d *Dialog) WithClock(now func() time.Time) *Dialog {
	d.now = now
	return d
}

// Handle processes one inbound WhatsApp message for a resolved tenant
// and returns the reply body. An empty reply means stay silent.
func (d *Dialog) Handle(ctx context.Context, r *models.Restaurant, from, body string) (string, error) {
	canonical := phone.Normalize(from)
	if canonical == "" {
		return "", fmt.Errorf("unusable sender number %q", from)
	}

	sess, err := d.sessions.Get(ctx, r.ID, canonical)
	if err != nil {
		log.Printf("⚠️ session read for %s failed: %v", canonical, err)
	}
	if sess == nil {
		sess = models.NewSession(canonical, r.ID)
	}

	msg := strings.TrimSpace(body)

	// A pending reminder conversation takes over the whole channel
	// until it reaches a terminal answer.
	if sess.Reminder != nil && sess.Reminder.IsReminder {
		return d.handleReminderReply(ctx, r, sess, msg)
	}

	if IsReset(msg) {
		sess.ResetDialog()
		d.save(ctx, sess)
		return resetReply(r), nil
	}

	if sess.State.InDialog() {
		return d.advance(ctx, r, sess, msg)
	}
	return d.handleIdle(ctx, r, sess, msg)
}

// handleIdle routes a message that arrives outside any flow.
func (d *Dialog) handleIdle(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	switch Classify(msg) {
	case IntentGreeting:
		sess.RedirectCount = 0
		d.save(ctx, sess)
		return welcomeReply(r, sess.GuestName), nil

	case IntentMenu:
		d.save(ctx, sess)
		return MenuOfDay(r, d.today()), nil

	case IntentHours:
		d.save(ctx, sess)
		return HoursInfo(r), nil

	case IntentLocation:
		d.save(ctx, sess)
		return LocationInfo(r), nil

	case IntentPolicy:
		d.save(ctx, sess)
		return PolicyInfo(r), nil

	case IntentReservation:
		return d.startReservation(ctx, r, sess, msg)

	case IntentFeedback:
		return d.captureFeedback(ctx, r, sess, msg)

	case IntentFarewell, IntentReset:
		d.save(ctx, sess)
		return fmt.Sprintf("¡Gracias por escribirnos! Te esperamos en %s 👋", r.Name), nil
	}

	// No keyword matched but the message may still carry booking slots
	// ("mañana para 4 a las 21").
	if res := nlp.Extract(msg, d.nowIn()); res.Fields() >= 2 {
		return d.startReservation(ctx, r, sess, msg)
	}

	if d.ai != nil {
		if answer, err := d.ai.Complete(ctx, r, msg); err == nil && answer != "" {
			d.save(ctx, sess)
			return answer, nil
		} else if err != nil {
			log.Printf("⚠️ ai fallback failed: %v", err)
		}
	}

	sess.RedirectCount++
	d.save(ctx, sess)
	if sess.RedirectCount > maxRedirects {
		return fmt.Sprintf("No logro entenderte 😅. Para ayudarte mejor, llamanos al %s.", r.ContactPhoneDisplay()), nil
	}
	return unknownReply(r), nil
}

// startReservation opens the flow, pre-filling whatever the first
// message already contains.
func (d *Dialog) startReservation(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	sess.ResetDialog()

	res := nlp.Extract(msg, d.nowIn())
	if res.Date != "" {
		if errMsg := d.validateDate(res.Date); errMsg != "" {
			sess.State = models.StateAwaitingDate
			d.save(ctx, sess)
			return errMsg, nil
		}
		sess.Draft.Date = res.Date
	}
	if res.Time != "" {
		sess.Draft.Time = res.Time
	}
	if res.PartySize > 0 {
		if reply, ok := d.checkPartySize(r, sess.Draft.Date, res.PartySize); !ok {
			sess.State = models.StateAwaitingPartySize
			d.save(ctx, sess)
			return reply, nil
		}
		sess.Draft.PartySize = res.PartySize
	}

	draft := &sess.Draft
	if res.Actionable() && draft.Date != "" && draft.PartySize > 0 {
		sess.State = models.StateAwaitingInitialOK
		d.save(ctx, sess)
		return initialSummary(draft), nil
	}

	switch {
	case draft.Date == "":
		sess.State = models.StateAwaitingDate
		d.save(ctx, sess)
		return "¡Genial! 🎉 ¿Para qué fecha y hora querés la reserva? (por ejemplo: mañana a las 21)", nil
	case draft.Time == "":
		sess.State = models.StateAwaitingDate
		d.save(ctx, sess)
		return fmt.Sprintf("Perfecto, el %s. ¿A qué hora?", draft.Date), nil
	default:
		sess.State = models.StateAwaitingPartySize
		d.save(ctx, sess)
		return "¿Para cuántas personas? 👥", nil
	}
}

// advance runs one step of the slot-filling flow.
func (d *Dialog) advance(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	// A topic change beats the in-flight prompt: wipe the dialog and
	// let the idle dispatch answer, so no mandatory field can trap the
	// guest.
	switch Classify(msg) {
	case IntentGreeting, IntentMenu, IntentHours, IntentLocation, IntentPolicy:
		sess.ResetDialog()
		return d.handleIdle(ctx, r, sess, msg)

	case IntentFeedback:
		// A complaint beats the in-flight prompt but keeps the
		// collected slots, so "pésimo servicio" is never taken as a
		// guest name. Reservation wording already won in Classify.
		return d.captureFeedback(ctx, r, sess, msg)
	}

	// "cancelar" bails out of any step. At the confirmation steps the
	// whole cancel vocabulary does.
	atConfirm := sess.State == models.StateAwaitingInitialOK || sess.State == models.StateAwaitingFinalConfirm
	if clean(msg) == "cancelar" && !atConfirm {
		sess.ResetDialog()
		d.save(ctx, sess)
		return "Listo, cancelé la reserva en curso. Escribí *reservar* cuando quieras empezar de nuevo 😊", nil
	}

	switch sess.State {
	case models.StateAwaitingDate:
		return d.stepDate(ctx, sess, msg)
	case models.StateAwaitingPartySize:
		return d.stepPartySize(ctx, r, sess, msg)
	case models.StateAwaitingInitialOK:
		return d.stepInitialConfirm(ctx, sess, msg)
	case models.StateAwaitingName:
		return d.stepName(ctx, sess, msg)
	case models.StateAwaitingPhone:
		return d.stepPhone(ctx, sess, msg)
	case models.StateAwaitingEmail:
		return d.stepEmail(ctx, sess, msg)
	case models.StateAwaitingFinalConfirm:
		return d.stepFinalConfirm(ctx, r, sess, msg)
	}

	// Unreachable state, start over.
	sess.ResetDialog()
	d.save(ctx, sess)
	return unknownReply(r), nil
}

func (d *Dialog) stepDate(ctx context.Context, sess *models.Session, msg string) (string, error) {
	res := nlp.Extract(msg, d.nowIn())

	if sess.Draft.Date == "" {
		if res.Date == "" {
			d.save(ctx, sess)
			return "No entendí la fecha 😅. Probá con algo como *mañana*, *el viernes* o *20/09*.", nil
		}
		if errMsg := d.validateDate(res.Date); errMsg != "" {
			d.save(ctx, sess)
			return errMsg, nil
		}
		sess.Draft.Date = res.Date
	}
	if res.Time != "" {
		sess.Draft.Time = res.Time
	}

	if sess.Draft.Time == "" {
		d.save(ctx, sess)
		return fmt.Sprintf("Perfecto, el %s. ¿A qué hora? 🕐", sess.Draft.Date), nil
	}

	sess.State = models.StateAwaitingPartySize
	d.save(ctx, sess)
	return "¿Para cuántas personas? 👥", nil
}

func (d *Dialog) stepPartySize(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	size := 0
	if res := nlp.Extract(msg, d.nowIn()); res.PartySize > 0 {
		size = res.PartySize
	} else if n, err := strconv.Atoi(clean(msg)); err == nil {
		size = n
	}

	if size < 1 {
		d.save(ctx, sess)
		return "¿Cuántas personas van a venir? Escribí un número, por ejemplo *4*.", nil
	}
	if reply, ok := d.checkPartySize(r, sess.Draft.Date, size); !ok {
		d.save(ctx, sess)
		return reply, nil
	}

	sess.Draft.PartySize = size
	sess.State = models.StateAwaitingInitialOK
	d.save(ctx, sess)
	return initialSummary(&sess.Draft), nil
}

func (d *Dialog) stepInitialConfirm(ctx context.Context, sess *models.Session, msg string) (string, error) {
	switch {
	case IsConfirmation(msg):
		sess.State = models.StateAwaitingName
		d.save(ctx, sess)
		return "¡Buenísimo! ¿A nombre de quién hago la reserva? ✍️", nil
	case IsRejection(msg):
		sess.ResetDialog()
		d.save(ctx, sess)
		return "Sin problema, no avanzo con esa reserva. Escribí *reservar* para empezar de nuevo cuando quieras 😊", nil
	default:
		d.save(ctx, sess)
		return "¿Confirmamos esos datos? Respondé *si* para seguir o *no* para cambiar algo.", nil
	}
}

func (d *Dialog) stepName(ctx context.Context, sess *models.Session, msg string) (string, error) {
	name := strings.TrimSpace(msg)
	if len([]rune(name)) < 2 || commandWord(name) {
		d.save(ctx, sess)
		return "Necesito un nombre para la reserva 😊 ¿A nombre de quién la hago?", nil
	}

	sess.Draft.Name = name
	sess.GuestName = name
	sess.State = models.StateAwaitingPhone
	d.save(ctx, sess)
	return fmt.Sprintf("Gracias, %s. ¿A qué teléfono te contactamos? Si es este mismo número, escribí *este*.", name), nil
}

func (d *Dialog) stepPhone(ctx context.Context, sess *models.Session, msg string) (string, error) {
	m := clean(msg)

	var number string
	if strings.Contains(m, "este") || strings.Contains(m, "mismo") {
		number = sess.Phone
	} else if digits := phone.Digits(msg); len(digits) >= 8 {
		number = phone.Normalize(digits)
	}

	if number == "" {
		d.save(ctx, sess)
		return "No pude leer el teléfono 😅. Escribilo con al menos 8 dígitos, o *este* para usar este número.", nil
	}

	sess.Draft.Phone = number
	sess.State = models.StateAwaitingEmail
	d.save(ctx, sess)
	return "¿Me dejás un email para enviarte la confirmación? Si preferís no darlo, escribí *no*. 📧", nil
}

func (d *Dialog) stepEmail(ctx context.Context, sess *models.Session, msg string) (string, error) {
	m := clean(msg)

	switch {
	case m == "no" || m == "n" || m == "omitir" || m == "saltar" || m == "sin email":
		sess.Draft.Email = ""
	case emailRe.MatchString(m):
		sess.Draft.Email = m
	default:
		d.save(ctx, sess)
		return "Ese email no parece válido 😅. Probá de nuevo o escribí *no* para omitirlo.", nil
	}

	sess.State = models.StateAwaitingFinalConfirm
	d.save(ctx, sess)
	return finalSummary(&sess.Draft), nil
}

func (d *Dialog) stepFinalConfirm(ctx context.Context, r *models.Restaurant, sess *models.Session, msg string) (string, error) {
	switch {
	case IsConfirmation(msg):
		return d.persistReservation(ctx, r, sess)
	case IsRejection(msg):
		sess.ResetDialog()
		d.save(ctx, sess)
		return "Listo, cancelé la reserva. Escribí *reservar* si querés empezar de nuevo 😊", nil
	default:
		d.save(ctx, sess)
		return "Respondé *1* para confirmar la reserva o *2* para cancelarla.", nil
	}
}

func (d *Dialog) persistReservation(ctx context.Context, r *models.Restaurant, sess *models.Session) (string, error) {
	draft := sess.Draft
	res := &models.Reservation{
		RestaurantID: r.ID,
		Date:         isoDate(draft.Date),
		Time:         draft.Time,
		PartySize:    draft.PartySize,
		Name:         draft.Name,
		Phone:        draft.Phone,
		Email:        draft.Email,
		Status:       r.InitialReservationStatus(),
		Origin:       "whatsapp",
	}

	if err := d.store.CreateReservation(res); err != nil {
		log.Printf("❌ reservation for %s could not be saved: %v", sess.Phone, err)
		// A failed write must not trap the guest re-confirming forever.
		sess.ResetDialog()
		d.save(ctx, sess)
		return fmt.Sprintf("No pude guardar la reserva en este momento 😔. Intentá de nuevo en unos minutos o llamanos al %s.", r.ContactPhoneDisplay()), nil
	}

	if res.Email != "" && d.mailer != nil {
		go func(r models.Restaurant, res models.Reservation) {
			if err := d.mailer.SendConfirmation(&r, &res); err != nil {
				log.Printf("⚠️ confirmation email to %s failed: %v", res.Email, err)
			}
		}(*r, *res)
	}

	// Conversation complete; drop the session so the next message
	// starts fresh.
	if err := d.sessions.Delete(ctx, sess.RestaurantID, sess.Phone); err != nil {
		log.Printf("⚠️ session cleanup for %s failed: %v", sess.Phone, err)
	}

	return fmt.Sprintf(
		"✅ *¡Reserva confirmada!*\n\n📅 %s\n👥 %d personas\n👤 %s\n\nCódigo: *%s*\n\n¡Te esperamos en %s! 🎉",
		whenLine(&draft), draft.PartySize, draft.Name, shortID(res.ID), r.Name,
	), nil
}

// checkPartySize validates the group size against limits and remaining
// capacity for the chosen date.
func (d *Dialog) checkPartySize(r *models.Restaurant, date string, size int) (string, bool) {
	if size > maxPartySize {
		return fmt.Sprintf("Para grupos de más de %d personas, llamanos al %s y lo coordinamos 😊", maxPartySize, r.ContactPhoneDisplay()), false
	}
	if date == "" {
		return "", true
	}

	occupied, err := d.store.OccupiedSeats(r.ID, isoDate(date))
	if err != nil {
		log.Printf("⚠️ capacity check for %s failed: %v", r.ID, err)
		return "", true
	}
	capacity := r.EffectiveCapacity()
	if occupied+size > capacity {
		free := capacity - occupied
		if free < 1 {
			return "Esa fecha ya está completa 😔. ¿Probamos con otro día? Escribí *cancelar* y arrancamos de nuevo.", false
		}
		return fmt.Sprintf("Para esa fecha solo nos quedan %d lugares 😔. ¿Venís con menos personas, o escribís *cancelar* para elegir otro día?", free), false
	}
	return "", true
}

// validateDate returns a user-facing complaint for unusable dates, or ""
// when the date works.
func (d *Dialog) validateDate(ddmmyyyy string) string {
	t, err := time.ParseInLocation("02/01/2006", ddmmyyyy, d.loc)
	if err != nil {
		return "No entendí la fecha 😅. Probá con algo como *mañana*, *el viernes* o *20/09*."
	}
	today := d.today()
	if t.Before(today) {
		return "Esa fecha ya pasó 😅. ¿Para qué día querés la reserva?"
	}
	if t.After(today.AddDate(0, 0, maxDaysAhead)) {
		return fmt.Sprintf("Por ahora tomamos reservas hasta %d días adelante 🗓️. ¿Elegís una fecha más cercana?", maxDaysAhead)
	}
	return ""
}

func (d *Dialog) save(ctx context.Context, sess *models.Session) {
	if err := d.sessions.Save(ctx, sess); err != nil {
		log.Printf("⚠️ session save for %s failed: %v", sess.Phone, err)
	}
}

func (d *Dialog) nowIn() time.Time {
	return d.now().In(d.loc)
}

func (d *Dialog) today() time.Time {
	n := d.nowIn()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, d.loc)
}

func initialSummary(d *models.ReservationDraft) string {
	return fmt.Sprintf(
		"¡Perfecto! Esto es lo que tengo:\n\n📅 %s\n👥 %d personas\n\n¿Avanzamos? Respondé *si* para seguir o *no* para cambiar algo.",
		whenLine(d), d.PartySize,
	)
}

// whenLine renders date plus time, tolerating a one-shot opening that
// never mentioned a time.
func whenLine(d *models.ReservationDraft) string {
	if d.Time == "" {
		return d.Date + " (hora a coordinar)"
	}
	return d.Date + " a las " + d.Time
}

func finalSummary(d *models.ReservationDraft) string {
	email := d.Email
	if email == "" {
		email = "(sin email)"
	}
	return fmt.Sprintf(
		"Revisá los datos de tu reserva:\n\n📅 %s\n👥 %d personas\n👤 %s\n📞 %s\n📧 %s\n\nRespondé *1* para confirmar o *2* para cancelar.",
		whenLine(d), d.PartySize, d.Name, d.Phone, email,
	)
}

func welcomeReply(r *models.Restaurant, guestName string) string {
	hello := "¡Hola!"
	if guestName != "" {
		hello = fmt.Sprintf("¡Hola, %s!", guestName)
	}
	return fmt.Sprintf(
		"%s 👋 Soy el asistente de *%s*. Puedo ayudarte con:\n\n1️⃣ Reservar una mesa\n2️⃣ Ver el menú\n3️⃣ Horarios y ubicación\n\n¿Qué necesitás?",
		hello, r.Name,
	)
}

func resetReply(r *models.Restaurant) string {
	return fmt.Sprintf("Listo, empezamos de cero 🔄\n\n%s", welcomeReply(r, ""))
}

func unknownReply(r *models.Restaurant) string {
	return fmt.Sprintf(
		"No estoy seguro de haberte entendido 🤔. Puedo ayudarte a *reservar* una mesa, mostrarte el *menú* o contarte nuestros *horarios*. ¿Qué necesitás de %s?",
		r.Name,
	)
}

// isoDate converts DD/MM/YYYY to YYYY-MM-DD for storage.
func isoDate(ddmmyyyy string) string {
	t, err := time.Parse("02/01/2006", ddmmyyyy)
	if err != nil {
		return ddmmyyyy
	}
	return t.Format("2006-01-02")
}

// displayDate converts YYYY-MM-DD back to DD/MM/YYYY for messages.
func displayDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format("02/01/2006")
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return strings.ToUpper(id)
	}
	return strings.ToUpper(id[:shortIDLength])
}
