package scraper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Currency handling for auction pages. Amounts are always US dollars;
// thousands separators are stripped before parsing and re-applied when
// rendering canonical text.
var (
	currencyRe = regexp.MustCompile(`\$[\d,]+\.?\d*`)
	numeralRe  = regexp.MustCompile(`\$?([\d,]+\.?\d*)`)
	percentRe  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// ExtractCurrency returns the first dollar-prefixed amount found in text.
func ExtractCurrency(text string) (string, bool) {
	match := currencyRe.FindString(text)
	if match == "" {
		return "", false
	}
	return match, true
}

// ExtractNumeral returns the first numeric amount in text, with or without a
// leading dollar sign, parsed to a float.
func ExtractNumeral(text string) (float64, bool) {
	m := numeralRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return ParseAmount(m[1])
}

// ParseAmount parses currency-like text into a numeric amount. Thousands
// separators and a leading dollar sign are stripped. A numeral without any
// digits is a miss, not zero.
func ParseAmount(text string) (float64, bool) {
	cleaned := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(text))
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, false
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// ExtractPercent returns the first "N%" value found in text.
func ExtractPercent(text string) (float64, bool) {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// PercentOf computes base * percent / 100.
func PercentOf(base, percent float64) float64 {
	return base * percent / 100
}

// FormatUSD renders an amount as canonical two-decimal currency text,
// e.g. 1234.5 -> "$1,234.50".
func FormatUSD(amount float64) string {
	text := strconv.FormatFloat(amount, 'f', 2, 64)
	parts := strings.SplitN(text, ".", 2)
	intPart := parts[0]

	sign := ""
	if strings.HasPrefix(intPart, "-") {
		sign = "-"
		intPart = intPart[1:]
	}

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	return fmt.Sprintf("%s$%s.%s", sign, grouped.String(), parts[1])
}
