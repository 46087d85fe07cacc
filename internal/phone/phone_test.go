package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"canonical passes through", "+5491123456789", "+5491123456789"},
		{"whatsapp prefix", "whatsapp:+5491123456789", "+5491123456789"},
		{"no plus", "5491123456789", "+5491123456789"},
		{"country without nine", "+541123456789", "+5491123456789"},
		{"local with trunk zero", "01123456789", "+5491123456789"},
		{"legacy mobile 15", "1523456789", "+5491123456789"},
		{"bare local assumes buenos aires", "23456789", "+5491123456789"},
		{"other area code", "whatsapp:+5492215551234", "+5492215551234"},
		{"spaces and dashes", "+54 9 11 2345-6789", "+5491123456789"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"whatsapp:+5491123456789",
		"01123456789",
		"5492215551234",
		"1523456789",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestVariants(t *testing.T) {
	got := Variants("whatsapp:01123456789")
	assert.Equal(t, []string{
		"+5491123456789",
		"5491123456789",
		"whatsapp:+5491123456789",
	}, got)

	assert.Nil(t, Variants("   "))
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "1123456789", Digits("mi tel es 1123456789 gracias"))
	assert.Equal(t, "23456789", Digits("11-2 23456789"))
	assert.Equal(t, "", Digits("sin numero"))
}
