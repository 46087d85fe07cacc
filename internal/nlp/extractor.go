// Package nlp pulls reservation slots (date, time, party size) out of
// free-form Spanish messages with a lightweight confidence score.
package nlp

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Result is the outcome of a single extraction pass.
type Result struct {
	Date       string  // DD/MM/YYYY, empty when not found
	Time       string  // HH:MM, empty when not found
	PartySize  int     // 0 when not found
	Confidence float64 // 0.4 date + 0.3 time + 0.3 party size
}

// Fields counts how many slots the pass filled.
func (r Result) Fields() int {
	n := 0
	if r.Date != "" {
		n++
	}
	if r.Time != "" {
		n++
	}
	if r.PartySize > 0 {
		n++
	}
	return n
}

// Actionable reports whether the extraction is trusted enough to skip
// straight to the confirmation step.
func (r Result) Actionable() bool {
	return r.Confidence >= 0.7 && r.Fields() >= 2
}

var (
	reExplicitDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?\b`)
	reSpokenDate   = regexp.MustCompile(`\b(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\b`)
	reDayOfMonth   = regexp.MustCompile(`\bel\s+(\d{1,2})\b`)
	reClockTime    = regexp.MustCompile(`\b(\d{1,2}):(\d{2})\b`)
	reSpokenTime   = regexp.MustCompile(`\b(?:a\s+las?\s+)(\d{1,2})(?::(\d{2}))?\s*(?:h|hs|hrs)?\b`)
	reSuffixTime   = regexp.MustCompile(`\b(\d{1,2})\s*(?:hs|hrs|h)\b`)
	rePMTime       = regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(pm|am)\b`)
	rePartySize    = regexp.MustCompile(`\b(?:para|somos|seremos|x)\s+(\d{1,2})\b`)
	rePartySuffix  = regexp.MustCompile(`\b(\d{1,2})\s+personas?\b`)
)

var weekdays = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

var monthNames = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4, "mayo": 5,
	"junio": 6, "julio": 7, "agosto": 8, "septiembre": 9, "setiembre": 9,
	"octubre": 10, "noviembre": 11, "diciembre": 12,
}

var partyWords = map[string]int{
	"uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4, "cinco": 5,
	"seis": 6, "siete": 7, "ocho": 8, "nueve": 9, "diez": 10,
}

// Extract runs every slot detector over the message. The reference time
// resolves relative dates ("mañana", weekday names).
func Extract(text string, now time.Time) Result {
	msg := strings.ToLower(strings.TrimSpace(text))
	var res Result

	if d, ok := extractDate(msg, now); ok {
		res.Date = d
		res.Confidence += 0.4
	}
	if t, ok := extractTime(msg); ok {
		res.Time = t
		res.Confidence += 0.3
	}
	if n, ok := extractPartySize(msg); ok {
		res.PartySize = n
		res.Confidence += 0.3
	}
	return res
}

func extractDate(msg string, now time.Time) (string, bool) {
	switch {
	case strings.Contains(msg, "pasado mañana") || strings.Contains(msg, "pasado manana"):
		return formatDate(now.AddDate(0, 0, 2)), true
	case strings.Contains(msg, "mañana") || strings.Contains(msg, "manana"):
		return formatDate(now.AddDate(0, 0, 1)), true
	case strings.Contains(msg, "hoy") || strings.Contains(msg, "esta noche"):
		return formatDate(now), true
	}

	for word, wd := range weekdays {
		if !strings.Contains(msg, word) {
			continue
		}
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return formatDate(now.AddDate(0, 0, ahead)), true
	}

	if m := reExplicitDate.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		} else if month < int(now.Month()) {
			year++
		}
		if !validDay(day, month) {
			return "", false
		}
		return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
	}

	if m := reSpokenDate.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := monthNames[m[2]]
		if !validDay(day, month) {
			return "", false
		}
		year := now.Year()
		if month < int(now.Month()) {
			year++
		}
		return fmt.Sprintf("%02d/%02d/%04d", day, month, year), true
	}

	if m := reDayOfMonth.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day < 1 || day > 31 {
			return "", false
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		candidate := time.Date(now.Year(), now.Month(), day, 0, 0, 0, 0, now.Location())
		if candidate.Before(today) {
			candidate = candidate.AddDate(0, 1, 0)
		}
		return formatDate(candidate), true
	}

	return "", false
}

func extractTime(msg string) (string, bool) {
	if m := rePMTime.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] == "pm" && hour < 12 {
			hour += 12
		}
		return clock(hour, minute)
	}
	if m := reClockTime.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return clock(hour, minute)
	}
	if m := reSpokenTime.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		return clock(hour, minute)
	}
	if m := reSuffixTime.FindStringSubmatch(msg); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return clock(hour, 0)
	}
	// "a la noche" or "al almuerzo" stand in for a clock time.
	switch {
	case strings.Contains(msg, "almuerzo") || strings.Contains(msg, "almorzar") ||
		strings.Contains(msg, "mediodia") || strings.Contains(msg, "mediodía"):
		return "13:00", true
	case strings.Contains(msg, "cena") || strings.Contains(msg, "noche"):
		return "21:00", true
	}
	return "", false
}

func extractPartySize(msg string) (int, bool) {
	if m := rePartySize.FindStringSubmatch(msg); m != nil {
		return partySize(m[1])
	}
	if m := rePartySuffix.FindStringSubmatch(msg); m != nil {
		return partySize(m[1])
	}
	for word, n := range partyWords {
		if strings.Contains(msg, "para "+word) || strings.Contains(msg, "somos "+word) {
			return n, true
		}
	}
	return 0, false
}

func partySize(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func clock(hour, minute int) (string, bool) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

func validDay(day, month int) bool {
	return day >= 1 && day <= 31 && month >= 1 && month <= 12
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
