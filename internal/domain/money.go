package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Money is a fixed-point amount in céntimos (hundredths of a colón).
// All monetary arithmetic in the engine runs on integer céntimos; floats
// never touch an amount.
type Money int64

// String renders the amount as colones with thousands separators,
// e.g. 1150000 -> "₡11,500.00".
func (m Money) String() string {
	negative := m < 0
	if negative {
		m = -m
	}
	units := int64(m) / 100
	cents := int64(m) % 100

	digits := strconv.FormatInt(units, 10)
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	b.WriteRune('₡')
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	fmt.Fprintf(&b, ".%02d", cents)
	return b.String()
}

// Colones builds a Money from a whole number of colones.
func Colones(n int64) Money {
	return Money(n * 100)
}
