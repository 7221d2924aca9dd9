// Package change owns the monetary rounding policies, the greedy
// denomination breakdown and the till inventory. Everything except the
// Till is pure computation on integer céntimos.
package change

import (
	"fmt"
	"strings"

	"pos-payments/internal/domain"
)

// Mode selects a rounding policy applied at the cent boundary.
type Mode int

const (
	// Nearest rounds half away from zero.
	Nearest Mode = iota
	// Up rounds away from zero whenever sub-cent precision remains.
	Up
	// Down truncates toward zero.
	Down
	// Banker rounds half to the nearest even cent.
	Banker
)

func (m Mode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Up:
		return "up"
	case Down:
		return "down"
	case Banker:
		return "banker"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseAmount converts a decimal string such as "10.005" into céntimos,
// applying mode to any digits beyond the second decimal place. Parsing
// stays in integer arithmetic the whole way, so the result is stable
// across calls regardless of how the amount would behave as a float.
func ParseAmount(s string, mode Mode) (domain.Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	if intPart == "" {
		intPart = "0"
	}
	for i := 0; i < len(intPart); i++ {
		if intPart[i] < '0' || intPart[i] > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
	}
	for i := 0; i < len(fracPart); i++ {
		if fracPart[i] < '0' || fracPart[i] > '9' {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
	}

	var units int64
	for i := 0; i < len(intPart); i++ {
		units = units*10 + int64(intPart[i]-'0')
	}

	frac := fracPart + "00"
	cents := units*100 + int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	rest := strings.TrimRight(frac[2:], "0")

	cents = roundRemainderDigits(cents, rest, mode)
	if negative {
		cents = -cents
	}
	return domain.Money(cents), nil
}

// roundRemainderDigits resolves the sub-cent digit string rest against the
// truncated cent value per mode. rest has trailing zeros stripped; an empty
// rest means the amount was exact.
func roundRemainderDigits(cents int64, rest string, mode Mode) int64 {
	if rest == "" {
		return cents
	}
	switch mode {
	case Down:
		return cents
	case Up:
		return cents + 1
	}

	// Compare the remainder against exactly one half (5 followed by zeros).
	cmp := 1 // above half
	if rest[0] < '5' {
		cmp = -1
	} else if rest[0] == '5' && len(rest) == 1 {
		cmp = 0
	}

	switch mode {
	case Banker:
		if cmp > 0 || (cmp == 0 && cents%2 != 0) {
			return cents + 1
		}
		return cents
	default: // Nearest
		if cmp >= 0 {
			return cents + 1
		}
		return cents
	}
}

// RoundScaled rounds a value expressed in 1/scale céntimos down to whole
// céntimos per mode. scale must be positive and value non-negative.
func RoundScaled(value, scale int64, mode Mode) domain.Money {
	base := value / scale
	rem := value % scale
	if rem == 0 {
		return domain.Money(base)
	}

	switch mode {
	case Down:
		return domain.Money(base)
	case Up:
		return domain.Money(base + 1)
	case Banker:
		switch {
		case 2*rem > scale:
			return domain.Money(base + 1)
		case 2*rem == scale && base%2 != 0:
			return domain.Money(base + 1)
		default:
			return domain.Money(base)
		}
	default: // Nearest
		if 2*rem >= scale {
			return domain.Money(base + 1)
		}
		return domain.Money(base)
	}
}

// ApplyRate computes amount scaled by basisPoints (1/100 of a percent),
// rounded per mode. Used for processor fees.
func ApplyRate(amount domain.Money, basisPoints int64, mode Mode) domain.Money {
	if amount <= 0 || basisPoints <= 0 {
		return 0
	}
	return RoundScaled(int64(amount)*basisPoints, 10000, mode)
}
