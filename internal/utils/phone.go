package utils

import (
	"regexp"
	"strings"
)

var (
	phoneStripPattern = regexp.MustCompile(`[^\d+]`)
	phoneValidPattern = regexp.MustCompile(`^\+61[2-9]\d{8}$`)
)

// NormalizePhone converts a raw phone string into canonical +61 form and
// reports whether the result is a well-formed Australian number.
//
// Rewriting rules for numbers without a + prefix:
//   - leading national 0 is dropped and replaced by +61
//   - a bare 9-digit number is assumed domestic and prefixed +61
//   - a 10-digit number not starting with 61 is prefixed +6, a rewrite
//     carried over from the production data set
//   - anything else just gains a + prefix
//
// Numbers already carrying + are left as-is, so the function is idempotent
// on its own output.
func NormalizePhone(raw string) (string, bool) {
	cleaned := phoneStripPattern.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" || cleaned == "+" {
		return cleaned, false
	}

	var canonical string
	if strings.HasPrefix(cleaned, "+") {
		canonical = cleaned
	} else {
		switch {
		case strings.HasPrefix(cleaned, "0"):
			canonical = "+61" + cleaned[1:]
		case len(cleaned) == 9:
			canonical = "+61" + cleaned
		case len(cleaned) == 10 && !strings.HasPrefix(cleaned, "61"):
			canonical = "+6" + cleaned
		default:
			canonical = "+" + cleaned
		}
	}

	return canonical, phoneValidPattern.MatchString(canonical)
}

// ValidPhone reports whether a phone number is already in canonical
// Australian form.
func ValidPhone(phone string) bool {
	return phoneValidPattern.MatchString(phone)
}
