package domain

import (
	"fmt"
	"strings"
)

type Currency struct {
	Code   string `json:"code"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

var Currencies = []Currency{
	{Code: "USD", Symbol: "$", Name: "United States Dollar"},
	{Code: "EUR", Symbol: "€", Name: "Euro"},
	{Code: "GBP", Symbol: "£", Name: "British Pound"},
	{Code: "JPY", Symbol: "¥", Name: "Japanese Yen"},
	{Code: "CAD", Symbol: "C$", Name: "Canadian Dollar"},
	{Code: "AUD", Symbol: "A$", Name: "Australian Dollar"},
	{Code: "CNY", Symbol: "¥", Name: "Chinese Yuan"},
	{Code: "INR", Symbol: "₹", Name: "Indian Rupee"},
	{Code: "BDT", Symbol: "৳", Name: "Bangladeshi Taka"},
}

// LookupCurrency finds a currency by code, case-insensitively.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return Currency{}, false
}

// NormalizeCurrency validates code and returns the lower-case vs_currency form
// the API expects.
func NormalizeCurrency(code string) (string, error) {
	c, ok := LookupCurrency(code)
	if !ok {
		return "", fmt.Errorf("unsupported currency %q", code)
	}
	return strings.ToLower(c.Code), nil
}

type TimeRange struct {
	Label string `json:"label"`
	Days  string `json:"days"`
}

// DefaultChartDays is the window loaded together with the detail record.
const DefaultChartDays = "10"

var TimeRanges = []TimeRange{
	{Label: "1D", Days: "1"},
	{Label: "7D", Days: "7"},
	{Label: "10D", Days: "10"},
	{Label: "1M", Days: "30"},
	{Label: "3M", Days: "90"},
	{Label: "1Y", Days: "365"},
	{Label: "All", Days: "max"},
}

func ValidTimeRange(days string) bool {
	for _, r := range TimeRanges {
		if r.Days == days {
			return true
		}
	}
	return false
}
