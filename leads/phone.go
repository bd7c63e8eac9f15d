package leads

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const (
	// PhoneDigits is the length of a BR mobile number with area code.
	PhoneDigits = 11
	PhoneRegion = "BR"
)

// Digits strips everything that is not an ASCII digit.
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r <= unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone applies the (DD) DDDDD-DDDD mask as the user types. Input
// beyond 11 digits is dropped; shorter input is formatted as far as it goes.
func FormatPhone(raw string) string {
	d := Digits(raw)
	if len(d) > PhoneDigits {
		d = d[:PhoneDigits]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 7:
		return "(" + d[:2] + ") " + d[2:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

// PhoneE164 returns the number in E.164 form (+5511988887777) or an empty
// string when it does not parse as a BR number.
func PhoneE164(raw string) string {
	parsed, err := phonenumbers.Parse(Digits(raw), PhoneRegion)
	if err != nil {
		return ""
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return ""
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
