package wizard

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	phoneRe = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// maxPhoneLen is the length of a fully punctuated "(ddd) ddd-dddd".
const maxPhoneLen = 14

// States is the fixed list of two-letter state codes offered in step two.
var States = []string{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// FormatPhone re-punctuates the digits of value as the user types:
// "(555", "(555) 12", "(555) 123-4567". Digits past the tenth are dropped.
func FormatPhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	d := b.String()
	if len(d) > 10 {
		d = d[:10]
	}

	var out string
	switch {
	case len(d) == 0:
		out = ""
	case len(d) <= 3:
		out = "(" + d
	case len(d) <= 6:
		out = "(" + d[:3] + ") " + d[3:]
	default:
		out = "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
	if len(out) > maxPhoneLen {
		return out[:maxPhoneLen]
	}
	return out
}

func ValidPhone(s string) bool { return phoneRe.MatchString(s) }

func ValidZip(s string) bool { return zipRe.MatchString(s) }

func ValidState(s string) bool { return slices.Contains(States, s) }

// PasswordCheck is one live requirement shown under the password field.
type PasswordCheck struct {
	Label   string
	Message string
	OK      bool
}

// PasswordChecks evaluates the four password requirements in display order.
func PasswordChecks(pw string) []PasswordCheck {
	has := func(lo, hi rune) bool {
		return strings.IndexFunc(pw, func(r rune) bool { return r >= lo && r <= hi }) >= 0
	}
	return []PasswordCheck{
		{"At least 8 characters", "Password must be at least 8 characters long", utf8.RuneCountInString(pw) >= 8},
		{"One uppercase letter", "Password must contain at least one uppercase letter", has('A', 'Z')},
		{"One lowercase letter", "Password must contain at least one lowercase letter", has('a', 'z')},
		{"One number", "Password must contain at least one number", has('0', '9')},
	}
}
