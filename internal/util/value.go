package util

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reFracSuffix = regexp.MustCompile(`\.0+$`)
	reNonAmount  = regexp.MustCompile(`[^0-9.\-]`)
	reDateSerial = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
)

// Day offset between the spreadsheet serial epoch (1899-12-30) and 1970-01-01.
const serialEpochOffset = 25569

const (
	serialMin = 29000
	serialMax = 60000
)

// Stringify renders a raw cell value as text. Floats are rendered without an
// exponent and without a trailing fractional zero.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// CleanIdentifier canonicalizes a free-form reference for comparison: trim,
// drop a trailing ".0"/".00" numeric-coercion artifact, lowercase. Applying
// it twice yields the same result.
func CleanIdentifier(v any) string {
	s := strings.TrimSpace(Stringify(v))
	s = reFracSuffix.ReplaceAllString(s, "")
	return strings.ToLower(s)
}

// CleanAmount extracts a float from a formatted money cell ("$1,024.50",
// "100.00 GBP"). Unparseable input yields 0; callers treat 0 as absent, not
// as a valid zero amount.
func CleanAmount(v any) float64 {
	s := reNonAmount.ReplaceAllString(Stringify(v), "")
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return parsed
}

// ResolveCalendarDate turns a spreadsheet date-serial into a dd/mm/yyyy
// string. Depending on the source cell format the decoder may hand us either
// a pre-formatted date string or a raw day-count; anything outside the
// plausible serial window passes through unchanged.
func ResolveCalendarDate(v any) string {
	s := strings.TrimSpace(Stringify(v))
	if !reDateSerial.MatchString(s) {
		return s
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < serialMin || serial > serialMax {
		return s
	}
	seconds := int64((serial - serialEpochOffset) * 86400)
	return time.Unix(seconds, 0).UTC().Format("02/01/2006")
}

// Last4 keeps the last four characters of the stringified value.
func Last4(v any) string {
	s := strings.TrimSpace(Stringify(v))
	r := []rune(s)
	if len(r) <= 4 {
		return s
	}
	return string(r[len(r)-4:])
}
