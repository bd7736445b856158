package settlement

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Epsilon is the tolerance below which a balance or remaining amount is
// treated as settled.
const Epsilon = 0.01

// numberPrefix matches the leading numeric part of user input, so "12.50abc"
// reads as 12.5 the same way a browser form field does.
var numberPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Amount is a user-entered numeric field. It decodes from a JSON number or a
// JSON string; blank or malformed input is kept as NaN and resolved by Coerce.
type Amount float64

// NaN returns an Amount that represents a blank or unparsable field.
func NaN() Amount {
	return Amount(math.NaN())
}

// Float returns the amount with non-finite values coerced to zero
func (a Amount) Float() float64 {
	return Coerce(float64(a))
}

// Valid reports whether the amount holds a finite number
func (a Amount) Valid() bool {
	f := float64(a)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON accepts numbers, numeric strings and null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = NaN()
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(ParseNumber(s))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		// Booleans, objects and arrays are malformed fields, not malformed documents
		*a = NaN()
		return nil
	}
	*a = Amount(f)
	return nil
}

// MarshalJSON writes non-finite amounts as null
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(a))
}

// ParseNumber reads the leading number of s. Blank or non-numeric input
// returns NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	m := numberPrefix.FindString(s)
	if m == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Coerce maps NaN and infinities to zero. Every arithmetic step of the engine
// passes through here.
func Coerce(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// quantityOf returns the item quantity, defaulting absent, zero or
// unparsable quantities to one.
func quantityOf(q Amount) float64 {
	f := q.Float()
	if f == 0 {
		return 1
	}
	return f
}

// costOf returns quantity * unit price for an item
func costOf(item LineItem) float64 {
	return Coerce(quantityOf(item.Quantity) * item.UnitPrice.Float())
}
