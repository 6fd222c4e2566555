package domain

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseAmount converts a user-entered amount into minor units.
//
// Rupiah has no minor digits in practice, so "15000", "15.000" and
// "15,000" all mean fifteen thousand. A trailing "k"/"rb" multiplies by a
// thousand and "jt" by a million ("25rb" -> 25000, "1,5jt" -> 1500000).
// A single separator followed by one or two digits is treated as a
// decimal mark and rounded half-up ("15,5" -> 16).
func ParseAmount(s string) (int64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "rp")
	s = strings.TrimSpace(strings.TrimPrefix(s, "."))
	if s == "" {
		return 0, &ErrValidation{Field: "amount", Message: "empty amount"}
	}

	multiplier := decimal.NewFromInt(1)
	for _, suffix := range []struct {
		text string
		mul  int64
	}{{"jt", 1_000_000}, {"rb", 1_000}, {"k", 1_000}} {
		if strings.HasSuffix(s, suffix.text) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix.text))
			multiplier = decimal.NewFromInt(suffix.mul)
			break
		}
	}

	normalized, err := normalizeSeparators(s)
	if err != nil {
		return 0, err
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return 0, &ErrValidation{Field: "amount", Message: "not a number: " + s}
	}
	d = d.Mul(multiplier).Round(0)
	if !d.IsPositive() {
		return 0, &ErrValidation{Field: "amount", Message: "must be positive"}
	}
	return d.IntPart(), nil
}

// normalizeSeparators rewrites "1.234.567", "1,234,567", "12,5" and "12.5"
// into a plain decimal literal.
func normalizeSeparators(s string) (string, error) {
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return "", &ErrValidation{Field: "amount", Message: "not a number: " + s}
		}
	}

	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots == 0 && commas == 0:
		return s, nil
	case dots > 0 && commas > 0:
		// Whichever comes last is the decimal mark.
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", "."), nil
		}
		return strings.ReplaceAll(s, ",", ""), nil
	}

	sep := "."
	if commas > 0 {
		sep = ","
	}
	parts := strings.Split(s, sep)
	if len(parts) == 2 && len(parts[1]) > 0 && len(parts[1]) <= 2 {
		return parts[0] + "." + parts[1], nil
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return "", &ErrValidation{Field: "amount", Message: "malformed thousands separator: " + s}
		}
	}
	return strings.Join(parts, ""), nil
}

// Supported display languages.
const (
	LangIndonesian = "id"
	LangEnglish    = "en"
)

// NormalizeLang maps anything but English to Indonesian.
func NormalizeLang(lang string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "en") {
		return LangEnglish
	}
	return LangIndonesian
}

var printers = map[string]*message.Printer{
	LangIndonesian: message.NewPrinter(language.Indonesian),
	LangEnglish:    message.NewPrinter(language.English),
}

// FormatNumber groups digits the way lang writes them.
func FormatNumber(n int64, lang string) string {
	return printers[NormalizeLang(lang)].Sprintf("%d", n)
}

// FormatRupiah renders an amount as "Rp 1.250.000" ("Rp 1,250,000" in
// English). Negative amounts get a leading minus.
func FormatRupiah(amount int64, lang string) string {
	if amount < 0 {
		return "-Rp " + FormatNumber(-amount, lang)
	}
	return "Rp " + FormatNumber(amount, lang)
}
