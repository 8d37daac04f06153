package formset

import (
	"strconv"
	"strings"
	"unicode"
)

// IncrementDashTokens splits value on "-" and replaces every token that
// starts with a decimal number by that number plus one. Tokens without a
// numeric prefix are kept byte for byte. An empty value is returned as is.
//
//	form-0-field         -> form-1-field
//	form-0-participant-0 -> form-1-participant-1
//	id_tags-3abc         -> id_tags-4
//
// Every numeric token advances, not only the row index, so a name that embeds
// an unrelated number is renumbered too.
func IncrementDashTokens(value string) string {
	if value == "" {
		return value
	}
	tokens := strings.Split(value, "-")
	for i, token := range tokens {
		digits, ok := leadingDigits(token)
		if !ok {
			continue
		}
		tokens[i] = incrementDecimal(digits)
	}
	return strings.Join(tokens, "-")
}

// ParseLeadingInt reads the decimal number at the start of s using the same
// rules as IncrementDashTokens. It reports false when s has no numeric prefix
// or the number does not fit in an int.
func ParseLeadingInt(s string) (int, bool) {
	digits, ok := leadingDigits(s)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// leadingDigits follows the base-10 branch of parseInt: leading whitespace
// and a single "+" are skipped, then the digit run is returned without
// leading zeros.
func leadingDigits(token string) (string, bool) {
	s := strings.TrimLeftFunc(token, unicode.IsSpace)
	s = strings.TrimPrefix(s, "+")

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return "", false
	}

	digits := strings.TrimLeft(s[:end], "0")
	if digits == "" {
		digits = "0"
	}
	return digits, true
}

// incrementDecimal adds one to a string of ASCII digits without going through
// a fixed-width integer.
func incrementDecimal(digits string) string {
	buf := []byte(digits)
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] < '9' {
			buf[i]++
			return string(buf)
		}
		buf[i] = '0'
	}
	return "1" + string(buf)
}
