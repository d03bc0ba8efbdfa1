package report

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatMagnitude abbreviates n: "<N>M" from one million, "<N>k" from one
// thousand, else the plain integer. Halves round to even.
func FormatMagnitude(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.0fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.0fk", float64(n)/1_000)
	}
	return strconv.FormatInt(n, 10)
}

// FormatDeaths renders a death range, or "N/A*" when both bounds are zero.
func FormatDeaths(lo, hi int64) string {
	if lo == 0 && hi == 0 {
		return "N/A*"
	}
	return FormatMagnitude(lo) + "-" + FormatMagnitude(hi)
}

// FormatYear renders negative years as "<abs> BCE".
func FormatYear(year int) string {
	if year < 0 {
		return strconv.Itoa(-year) + " BCE"
	}
	return strconv.Itoa(year)
}

// FormatThousands renders n with comma thousands separators.
func FormatThousands(n int) string {
	return printer.Sprintf("%d", n)
}
