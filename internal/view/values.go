package view

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Record values are loosely typed: whatever a form, a JSON decoder or a
// database driver produced. These helpers coerce them the same way in every
// view so a malformed value renders defensively instead of failing.

// toNumber coerces v to a float64. Strings are parsed after trimming, the
// empty string counts as zero and booleans count as 0/1. ok is false when no
// finite number can be derived.
func toNumber(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		p, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = p
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, true
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// isNumeric reports whether v already holds a number, as opposed to
// something that merely coerces to one.
func isNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return true
	}
	return false
}

// stringify renders v as plain text. Lists join with a bare comma.
func stringify(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case json.Number:
		return s.String()
	case time.Time:
		return s.Format(time.RFC3339)
	case []string:
		return strings.Join(s, ",")
	case []any:
		parts := make([]string, len(s))
		for i, e := range s {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	}
	if f, ok := toNumber(v); ok && isNumeric(v) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// truthy follows the usual dynamic-language notion: nil, false, "", 0 and
// NaN are false, everything else (including empty lists) is true.
func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		return b != ""
	}
	if isNumeric(v) {
		f, ok := toNumber(v)
		return ok && f != 0
	}
	return true
}

// isBlank marks values a card omits: nil, the empty string and false.
func isBlank(v any) bool {
	switch b := v.(type) {
	case nil:
		return true
	case string:
		return b == ""
	case bool:
		return !b
	}
	return false
}

// stringList returns the elements of a list value. Non-list values yield nil,
// so a malformed multiSelect value is treated as empty.
func stringList(v any) []string {
	switch l := v.(type) {
	case []string:
		return l
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			out = append(out, stringify(e))
		}
		return out
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DayLayout,
}

// DayLayout is the calendar-day key format used for date values.
const DayLayout = "2006-01-02"

// parseDate reads a date value. Date-only strings resolve to UTC midnight.
func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// dayKey extracts the calendar day of a date value. Strings that begin with
// a valid YYYY-MM-DD prefix are truncated rather than converted, so the day a
// writer recorded never shifts with time zones.
func dayKey(v any) (string, bool) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if len(s) >= len(DayLayout) {
			if _, err := time.Parse(DayLayout, s[:len(DayLayout)]); err == nil {
				return s[:len(DayLayout)], true
			}
		}
	}
	t, ok := parseDate(v)
	if !ok {
		return "", false
	}
	return t.Format(DayLayout), true
}
