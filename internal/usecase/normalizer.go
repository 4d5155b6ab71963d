package usecase

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey uppercases, trims and strips diacritics so "Cód." and "COD." compare equal.
// Used for rule headers and product lookup keys; visible names keep their original form.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(stripDiacritics(s)))
}

// NormalizeHeader lowercases and trims a cost table header.
// Diacritics are kept: the column rules list both accented and plain spellings.
func NormalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripDiacritics decomposes s and drops the combining marks
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// parseNumber reads a spreadsheet cell as a number. It accepts currency and percent
// signs, thousands separators and a decimal comma. ok is false for blank or non-numeric cells.
func parseNumber(cell string) (value float64, ok bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "US$")
	s = strings.TrimPrefix(s, "S/")
	s = strings.Trim(s, "$% ")
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, false
	}

	// the separator that appears last is the decimal point
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && dot > comma:
		// 1,234.56 -> 1234.56
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		// 1.234,56 -> 1234.56
		s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case comma >= 0:
		s = strings.ReplaceAll(s, ",", ".")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
