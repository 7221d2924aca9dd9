package validator

// Costa Rican mobile numbers start with one of these digits.
var sinpeLeadingDigits = map[byte]bool{'2': true, '4': true, '6': true, '7': true, '8': true}

const countryCodePrefix = "506"

// ValidSINPENumber reports whether s is a phone number SINPE Móvil can
// address: 8 digits starting with a valid mobile leading digit, or 11
// digits carrying the 506 country code followed by such a digit.
func ValidSINPENumber(s string) bool {
	digits := digitsOnly(s)

	switch len(digits) {
	case 8:
		return sinpeLeadingDigits[digits[0]]
	case 11:
		return digits[:3] == countryCodePrefix && sinpeLeadingDigits[digits[3]]
	}
	return false
}
