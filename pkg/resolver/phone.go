package resolver

import "strings"

// phoneLookupVariants normalizes phone to its last 10 digits, then returns
// the leading-+ variants an exact-match lookup should try in order: the
// bare digits first (how attributes are stored by this engine), then
// +1-prefixed, then a bare +-prefixed form, to catch phones ingested by an
// earlier source in a different shape.
func phoneLookupVariants(phone string) []string {
	digits := onlyDigits(phone)
	if len(digits) == 0 {
		return nil
	}
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	if len(digits) < 10 {
		return []string{digits}
	}
	return []string{digits, "+1" + digits, "+" + digits}
}

// canonicalPhone is the form a new phone attribute is stored in: bare last-10
// digits, no separators or country code.
func canonicalPhone(phone string) string {
	digits := onlyDigits(phone)
	if len(digits) > 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
