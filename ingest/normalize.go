package ingest

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// NormalizeDate resolves the epoch-millis date of a record.
//
// Precedence: a numeric `date` field; then the legacy `data` field, either a
// DD/MM/YYYY string (local midnight) or a number; then now. A `data` string in
// any other format is treated as absent, so the record is stamped with now.
func NormalizeDate(date, data interface{}, now time.Time) int64 {
	if ms, ok := dateValue(date); ok {
		return ms
	}

	switch v := data.(type) {
	case string:
		if t, ok := parseLegacyDate(v); ok {
			return t.UnixMilli()
		}
	case json.Number, float64, int64, int:
		if f, ok := number(v); ok && f != 0 {
			return int64(f)
		}
	}

	return now.UnixMilli()
}

// dateValue accepts non-zero numbers and numeric strings
func dateValue(v interface{}) (int64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	}

	f, ok := number(v)
	if !ok || f == 0 {
		return 0, false
	}
	return int64(f), true
}

var legacyDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// parseLegacyDate parses DD/MM/YYYY into local midnight
func parseLegacyDate(s string) (time.Time, bool) {
	m := legacyDatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, false
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}

// number converts JSON numbers and Go numerics; strings are not accepted here
func number(v interface{}) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = n
	case int64:
		f = float64(n)
	case int:
		f = float64(n)
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
