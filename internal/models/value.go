package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Value is a measurement reported by a detector. Clients send numbers or free-form
// strings ("7.9 pH", "12,5"); numeric input is kept as a number and anything that
// cannot be read as one is kept verbatim.
type Value struct {
	num   float64
	text  string
	isNum bool
}

// NumberValue wraps a numeric measurement
func NumberValue(f float64) Value { return Value{num: f, isNum: true} }

// TextValue wraps a non-numeric measurement
func TextValue(s string) Value { return Value{text: s} }

// Number returns the numeric value and whether the value is numeric
func (v Value) Number() (float64, bool) { return v.num, v.isNum }

// String returns the textual form of the value
func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// Loose reads the value as a number the way dashboard widgets do: numbers pass
// through, strings are stripped of anything but digits, sign and dot, and whatever
// still fails to parse counts as zero.
func (v Value) Loose() float64 {
	if v.isNum {
		return v.num
	}
	f, err := strconv.ParseFloat(nonNumeric.ReplaceAllString(v.text, ""), 64)
	if err != nil || !finite(f) {
		return 0
	}
	return f
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = TextValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("value must be a number or string: %w", err)
	}
	*v = NumberValue(f)
	return nil
}

var nonNumeric = regexp.MustCompile(`[^\d.+-]`)

// looseNumber parses user supplied text. Blank text reads as zero; otherwise the text
// is parsed as is and, failing that, with everything but digits, sign and dot removed.
func looseNumber(s string) (float64, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, true
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil && finite(f) {
		return f, true
	}
	stripped := nonNumeric.ReplaceAllString(trimmed, "")
	if stripped == "" {
		return 0, true
	}
	if f, err := strconv.ParseFloat(stripped, 64); err == nil && finite(f) {
		return f, true
	}
	return 0, false
}

// toNumber coerces a decoded JSON value into a number
func toNumber(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case json.Number:
		f, err := t.Float64()
		return f, err == nil && finite(f)
	case string:
		return looseNumber(t)
	}
	return 0, false
}

// toFloat coerces a decoded JSON value into a coordinate component; NaN when it cannot
func toFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
			return f
		}
	case bool:
		if t {
			return 1
		}
		return 0
	}
	return math.NaN()
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
