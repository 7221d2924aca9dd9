package validator

import "strconv"

// LuhnValid reports whether a digit string passes the Luhn mod-10 checksum:
// double every second digit from the right, subtract 9 from doubled digits
// above 9, and require the total to be divisible by 10.
func LuhnValid(digits string) bool {
	if digits == "" {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// CardBrand infers the brand from the leading digits. The result is purely
// informational; validation never branches on it.
func CardBrand(number string) string {
	digits := digitsOnly(number)
	if digits == "" {
		return "Unknown"
	}

	switch {
	case digits[0] == '4':
		return "Visa"
	case prefixInRange(digits, 2, 51, 55), prefixInRange(digits, 4, 2221, 2720):
		return "Mastercard"
	case hasPrefix(digits, "34"), hasPrefix(digits, "37"):
		return "American Express"
	case hasPrefix(digits, "36"), hasPrefix(digits, "38"):
		return "Diners"
	case hasPrefix(digits, "6011"), hasPrefix(digits, "65"):
		return "Discover"
	}
	return "Unknown"
}

func hasPrefix(digits, prefix string) bool {
	return len(digits) >= len(prefix) && digits[:len(prefix)] == prefix
}

func prefixInRange(digits string, width, lo, hi int) bool {
	if len(digits) < width {
		return false
	}
	n, err := strconv.Atoi(digits[:width])
	if err != nil {
		return false
	}
	return n >= lo && n <= hi
}

// digitsOnly strips separators (spaces, dashes) from a card or phone number.
func digitsOnly(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
