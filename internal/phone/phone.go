// Package phone normalizes Argentine phone numbers to a single canonical
// form so that sessions and reservations match regardless of how the
// WhatsApp gateway formats the sender.
package phone

import "strings"

// Canonical form: +549 + two digit area code + local number.
const countryMobilePrefix = "+549"

// Normalize converts any gateway formatting of an Argentine number into
// the canonical +549 form. It is idempotent: feeding a canonical number
// back in returns it unchanged.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "whatsapp:")

	digits := keepDigits(s)
	if digits == "" {
		return ""
	}

	// Strip the country code in its mobile and landline spellings.
	switch {
	case strings.HasPrefix(digits, "549"):
		digits = digits[3:]
	case strings.HasPrefix(digits, "54"):
		digits = digits[2:]
	}

	// Local dialing artifacts: leading trunk zero and the legacy
	// mobile prefix 15.
	digits = strings.TrimLeft(digits, "0")
	if len(digits) > 8 && strings.HasPrefix(digits, "15") {
		digits = digits[2:]
	}

	// With ten or more digits the first two are the area code,
	// otherwise assume Buenos Aires.
	area := "11"
	local := digits
	if len(digits) >= 10 {
		area = digits[:2]
		local = digits[2:]
	}

	return countryMobilePrefix + area + local
}

// Variants returns the canonical number plus the spellings the gateway
// may use for the same guest. Sessions written under every variant make
// reminder replies match no matter how the sender field arrives.
func Variants(raw string) []string {
	c := Normalize(raw)
	if c == "" {
		return nil
	}
	return []string{
		c,
		strings.TrimPrefix(c, "+"),
		"whatsapp:" + c,
	}
}

// Digits returns the longest run of consecutive digits in s. Used to pull
// a phone number out of free text.
func Digits(s string) string {
	best, cur := "", strings.Builder{}
	flush := func() {
		if cur.Len() > len(best) {
			best = cur.String()
		}
		cur.Reset()
	}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return best
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
