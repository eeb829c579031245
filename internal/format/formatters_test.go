package format

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ptr(v float64) *float64 { return &v }

func TestCurrency(t *testing.T) {
	assert.Equal(t, "-", Currency(nil, "usd"))
	assert.Equal(t, "$1,234.50", Currency(ptr(1234.5), "usd"))
	assert.Equal(t, "$0.00", Currency(ptr(0), "USD"))
	assert.Equal(t, "-$12.35", Currency(ptr(-12.346), "usd"))
	assert.Equal(t, "€42.00", Currency(ptr(42), "eur"))
	assert.Equal(t, "C$1.10", Currency(ptr(1.1), "cad"))
	assert.Equal(t, "XYZ 5.00", Currency(ptr(5), "xyz"))

	twoDecimals := regexp.MustCompile(`\.\d{2}$`)
	for _, v := range []float64{0.001, 1, 99.999, 123456789.123, -3.5} {
		out := Currency(ptr(v), "usd")
		assert.Regexp(t, twoDecimals, out)
		assert.Contains(t, out, "$")
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, "-", Percentage(nil))
	assert.Equal(t, "+1.23%", Percentage(ptr(1.234)))
	assert.Equal(t, "-4.57%", Percentage(ptr(-4.567)))
	assert.Equal(t, "+0.00%", Percentage(ptr(0)))

	negZero := ptr(0)
	*negZero = -*negZero
	assert.Equal(t, "+0.00%", Percentage(negZero))

	shape := regexp.MustCompile(`^[+-]\d+\.\d{2}%$`)
	for _, v := range []float64{-100, -0.5, 0, 0.5, 12.345, 9999} {
		out := Percentage(ptr(v))
		assert.Regexp(t, shape, out)
		assert.Equal(t, v >= 0, strings.HasPrefix(out, "+"), "value %v -> %s", v, out)
	}
}

func TestLargeNumber(t *testing.T) {
	tests := []struct {
		in   *float64
		want string
	}{
		{nil, "-"},
		{ptr(1_500_000_000), "$1.50B"},
		{ptr(999), "$999.00"},
		{ptr(2_300), "$2.30K"},
		{ptr(4_560_000), "$4.56M"},
		{ptr(1.2e12), "$1.20T"},
		{ptr(0), "$0.00"},
		{ptr(-1_500_000_000), "-$1.50B"},
		{ptr(-0.001), "$0.00"},
		// rounding up at a scale boundary keeps the suffix and has no separator
		{ptr(999_999), "$1000.00K"},
		{ptr(999.999), "$1000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LargeNumber(tt.in))
	}
}

func TestNumberRankDate(t *testing.T) {
	assert.Equal(t, "19,500,000.00", Number(ptr(19_500_000), 2))
	assert.Equal(t, "-", Number(nil, 2))

	r := 3
	assert.Equal(t, "#3", Rank(&r))
	assert.Equal(t, "-", Rank(nil))

	ts := time.Date(2026, time.October, 19, 10, 49, 0, 0, time.UTC)
	assert.Equal(t, "Oct 19, 2026, 10:49 AM", Date(ts))
	assert.Equal(t, "-", Date(time.Time{}))
	assert.Equal(t, "10/19/2026", ShortDate(ts))
}
