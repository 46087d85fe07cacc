package services

import "strings"

// Intent is the coarse classification of an incoming message.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentMenu        Intent = "menu"
	IntentLocation    Intent = "location"
	IntentHours       Intent = "hours"
	IntentPolicy      Intent = "policy"
	IntentReservation Intent = "reservation"
	IntentFeedback    Intent = "feedback"
	IntentFarewell    Intent = "farewell"
	IntentReset       Intent = "reset"
	IntentUnknown     Intent = "unknown"
)

var confirmWords = map[string]bool{
	"1": true, "confirmar": true, "confirmo": true, "si": true, "sí": true,
	"s": true, "yes": true, "ok": true, "confirmado": true, "dale": true,
	"listo": true,
}

var cancelWords = map[string]bool{
	"2": true, "cancelar": true, "cancelo": true, "no": true, "n": true,
	"nop": true, "cancelado": true,
}

var resetWords = map[string]bool{
	"reset": true, "reiniciar": true, "refresh": true, "reinicio": true,
	"borrar": true, "limpiar": true, "salir": true, "0": true, "inicio": true,
	"empezar de nuevo": true, "menu principal": true,
}

var thanksWords = map[string]bool{
	"gracias": true, "muchas gracias": true, "mil gracias": true,
	"genial": true, "perfecto": true, "buenisimo": true, "buenísimo": true,
}

var greetingWords = []string{
	"hola", "buenas", "buenos dias", "buenos días", "buenas tardes",
	"buenas noches", "que tal", "qué tal",
}

var reservationWords = []string{
	"reserva", "reservar", "mesa", "lugar", "turno", "quiero ir", "para comer",
	"para cenar", "para almorzar",
}

var menuWords = []string{
	"menu", "menú", "carta", "platos", "comida", "que tienen", "qué tienen",
	"para comer hoy",
}

var locationWords = []string{
	"donde", "dónde", "direccion", "dirección", "ubicacion", "ubicación",
	"como llego", "cómo llego",
}

var hoursWords = []string{
	"horario", "horarios", "a que hora abren", "a qué hora abren",
	"hasta que hora", "abierto",
}

var policyWords = []string{
	"mascota", "mascotas", "estacionamiento", "tarjeta", "efectivo",
	"fumar", "cumpleaños", "cumpleanos", "politica", "política",
	"con niños", "con chicos",
}

var feedbackWords = []string{
	"queja", "reclamo", "sugerencia", "comentario", "opinion", "opinión",
	"felicitar", "felicitaciones", "malo", "pesimo", "pésimo", "excelente",
}

var farewellWords = []string{
	"chau", "adios", "adiós", "hasta luego", "nos vemos", "bye",
}

// IsConfirmation reports whether msg is an affirmative answer.
func IsConfirmation(msg string) bool {
	return confirmWords[clean(msg)]
}

// IsRejection reports whether msg is a negative answer.
func IsRejection(msg string) bool {
	return cancelWords[clean(msg)]
}

// IsReset reports whether msg asks to wipe the conversation.
func IsReset(msg string) bool {
	return resetWords[clean(msg)]
}

// IsThanks reports whether msg is a courtesy closing.
func IsThanks(msg string) bool {
	m := clean(msg)
	if thanksWords[m] {
		return true
	}
	return strings.Contains(m, "gracias")
}

// Classify maps a free-form message to an Intent. Reservation wording
// wins over feedback wording so "quiero reservar, la vez pasada fue
// excelente" still starts the flow.
func Classify(msg string) Intent {
	m := clean(msg)
	if m == "" {
		return IntentUnknown
	}
	if IsReset(m) {
		return IntentReset
	}
	if containsAny(m, reservationWords) {
		return IntentReservation
	}
	if containsAny(m, feedbackWords) {
		return IntentFeedback
	}
	if containsAny(m, menuWords) {
		return IntentMenu
	}
	if containsAny(m, hoursWords) {
		return IntentHours
	}
	if containsAny(m, locationWords) {
		return IntentLocation
	}
	if containsAny(m, policyWords) {
		return IntentPolicy
	}
	if containsAny(m, greetingWords) {
		return IntentGreeting
	}
	if containsAny(m, farewellWords) || IsThanks(m) {
		return IntentFarewell
	}
	return IntentUnknown
}

// commandWord reports whether msg looks like a bot command rather than a
// person's name.
func commandWord(msg string) bool {
	m := clean(msg)
	return IsReset(m) ||
		containsAny(m, reservationWords) ||
		containsAny(m, menuWords) ||
		containsAny(m, greetingWords)
}

func clean(msg string) string {
	return strings.ToLower(strings.TrimSpace(msg))
}

func containsAny(msg string, words []string) bool {
	for _, w := range words {
		if strings.Contains(msg, w) {
			return true
		}
	}
	return false
}
