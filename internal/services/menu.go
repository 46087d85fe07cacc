package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mesafacil/reservas-backend/internal/models"
)

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "lunes",
	time.Tuesday:   "martes",
	time.Wednesday: "miercoles",
	time.Thursday:  "jueves",
	time.Friday:    "viernes",
	time.Saturday:  "sabado",
}

// MenuOfDay renders the tenant's menu for the given day, or a redirect
// to the contact number when no menu document exists.
func MenuOfDay(r *models.Restaurant, day time.Time) string {
	if r.Menu == nil || len(r.Menu.Days) == 0 {
		return fmt.Sprintf("Por el momento no tengo la carta cargada. Podés consultarla llamando al %s 📞", r.ContactPhoneDisplay())
	}

	name := weekdayNames[day.Weekday()]
	dm, ok := r.Menu.Days[name]
	if !ok {
		// Some tenants load the accented spelling.
		for k, v := range r.Menu.Days {
			if normalizeDay(k) == name {
				dm, ok = v, true
				break
			}
		}
	}
	if !ok || (len(dm.Lunch) == 0 && len(dm.Dinner) == 0) {
		return fmt.Sprintf("No tengo el menú de %s cargado. Consultanos al %s 📞", name, r.ContactPhoneDisplay())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🍽️ *Menú del %s en %s*\n", name, r.Name)
	writeCourse(&b, "Almuerzo", dm.Lunch)
	writeCourse(&b, "Cena", dm.Dinner)
	b.WriteString("\n¿Querés reservar una mesa? Escribí *reservar* 😊")
	return b.String()
}

func writeCourse(b *strings.Builder, title string, items []models.MenuItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n*%s*\n", title)
	for _, it := range items {
		if it.Price > 0 {
			fmt.Fprintf(b, "• %s — $%.0f\n", it.Name, it.Price)
		} else {
			fmt.Fprintf(b, "• %s\n", it.Name)
		}
	}
}

// LocationInfo renders the address reply.
func LocationInfo(r *models.Restaurant) string {
	addr := r.Address
	if r.Info != nil && r.Info.Contact.Address != "" {
		addr = r.Info.Contact.Address
	}
	if addr == "" {
		return fmt.Sprintf("Para saber cómo llegar, llamanos al %s 📞", r.ContactPhoneDisplay())
	}
	return fmt.Sprintf("📍 Estamos en %s. ¡Te esperamos!", addr)
}

// HoursInfo renders the opening-hours reply.
func HoursInfo(r *models.Restaurant) string {
	if r.Info == nil || len(r.Info.Hours) == 0 {
		return fmt.Sprintf("Para conocer nuestros horarios, llamanos al %s 📞", r.ContactPhoneDisplay())
	}
	var b strings.Builder
	b.WriteString("🕐 *Nuestros horarios:*\n")
	for _, day := range []string{"lunes", "martes", "miercoles", "jueves", "viernes", "sabado", "domingo"} {
		for k, v := range r.Info.Hours {
			if normalizeDay(k) == day {
				fmt.Fprintf(&b, "• %s: %s\n", titleCase(k), v)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// PolicyInfo answers house-policy questions from the info document.
func PolicyInfo(r *models.Restaurant) string {
	if r.Info == nil || len(r.Info.Policies) == 0 {
		return fmt.Sprintf("Para esa consulta puntual, llamanos al %s 📞", r.ContactPhoneDisplay())
	}
	var b strings.Builder
	b.WriteString("ℹ️ *Políticas de la casa:*\n")
	for name, text := range r.Info.Policies {
		fmt.Fprintf(&b, "• %s: %s\n", titleCase(name), text)
	}
	return strings.TrimRight(b.String(), "\n")
}

// titleCase upcases the first rune. The labels here are single
// lowercase words.
func titleCase(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func normalizeDay(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")
	return replacer.Replace(s)
}
