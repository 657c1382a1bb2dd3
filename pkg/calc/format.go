package calc

import "strings"

const (
	// MaxDigits caps the raw length of a display value. Grouping
	// separators do not count towards it.
	MaxDigits = 10

	Separator = ' '

	ErrorToken          = "error"
	DivisionByZeroToken = "😆"
)

// IsValidNumber reports whether s, with separators stripped, fits the
// display.
func IsValidNumber(s string) bool {
	return len(strip(s)) <= MaxDigits
}

// FormatNumber groups the integer part of s in threes and caps the result
// at MaxDigits raw characters. An integer part longer than MaxDigits is
// cut and its fraction dropped; the final cap may cut through the
// fraction or an exponent. Neither step rounds. Non-numeric input yields
// ErrorToken.
func FormatNumber(s string) string {
	raw := strip(s)
	if !numeric.MatchString(raw) {
		return ErrorToken
	}

	integer, fraction, _ := strings.Cut(raw, ".")
	if fraction != "" {
		fraction = "." + fraction
	}
	if len(integer) > MaxDigits {
		integer = integer[:MaxDigits]
		fraction = ""
	}

	return truncate(group(integer) + fraction)
}

func group(integer string) string {
	sign := ""
	if integer != "" && (integer[0] == '-' || integer[0] == '+') {
		sign, integer = integer[:1], integer[1:]
	}
	exp := ""
	if i := strings.IndexAny(integer, "eE"); i >= 0 {
		integer, exp = integer[:i], integer[i:]
	}

	var b strings.Builder
	for i, r := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteRune(Separator)
		}
		b.WriteRune(r)
	}
	return sign + b.String() + exp
}

func truncate(s string) string {
	var (
		b     strings.Builder
		count int
	)
	for _, r := range s {
		if count == MaxDigits {
			break
		}
		b.WriteRune(r)
		if r != Separator {
			count++
		}
	}
	return strings.TrimRight(b.String(), string(Separator))
}

func displayLen(s string) int {
	return len([]rune(strip(s)))
}
