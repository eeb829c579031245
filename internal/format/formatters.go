// Package format turns raw API numbers into display strings.
// Every function is total: a nil value renders as Placeholder.
package format

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/leekchan/accounting"

	"github.com/vitos/cryptomaniac/internal/domain"
)

const Placeholder = "-"

const moneyPrecision = 2

// Currency renders v as money in the given currency, e.g. "$1,234.50".
func Currency(v *float64, code string) string {
	if v == nil {
		return Placeholder
	}
	return moneyFormatter(code).FormatMoneyFloat64(*v)
}

func moneyFormatter(code string) *accounting.Accounting {
	symbol := strings.ToUpper(code)
	if c, ok := domain.LookupCurrency(code); ok {
		symbol = c.Symbol
	} else if symbol == "" {
		symbol = "$"
	} else {
		symbol += " "
	}
	return accounting.DefaultAccounting(symbol, moneyPrecision)
}

// Percentage renders a signed percentage: "+1.23%" or "-4.56%".
func Percentage(v *float64) string {
	if v == nil {
		return Placeholder
	}
	x := *v
	if x == 0 {
		// drops the sign of negative zero
		x = 0
	}
	sign := ""
	if x >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, x)
}

var largeNumberScales = []struct {
	threshold float64
	suffix    string
}{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

// LargeNumber abbreviates v with K/M/B/T suffixes: 1.5e9 -> "$1.50B".
// The mantissa has no thousands separator, so 999999 renders as "$1000.00K".
func LargeNumber(v *float64) string {
	if v == nil {
		return Placeholder
	}
	abs := math.Abs(*v)
	scaled, suffix := abs, ""
	for _, s := range largeNumberScales {
		if abs >= s.threshold {
			scaled, suffix = abs/s.threshold, s.suffix
			break
		}
	}
	digits := accounting.FormatNumberFloat64(scaled, moneyPrecision, "", ".")
	sign := ""
	if *v < 0 && strings.Trim(digits, "0.") != "" {
		sign = "-"
	}
	return sign + "$" + digits + suffix
}

// Number renders v with thousands separators and a fixed number of decimals.
func Number(v *float64, decimals int) string {
	if v == nil {
		return Placeholder
	}
	return accounting.FormatNumberFloat64(*v, decimals, ",", ".")
}

// Rank renders a market cap rank as "#12".
func Rank(r *int) string {
	if r == nil {
		return Placeholder
	}
	return fmt.Sprintf("#%d", *r)
}

const dateLayout = "Jan 2, 2006, 03:04 PM"

// Date renders t like "Oct 19, 2026, 10:49 AM". The zero time renders as Placeholder.
func Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format(dateLayout)
}

// ShortDate is the chart axis label.
func ShortDate(t time.Time) string {
	return t.Format("1/2/2006")
}
