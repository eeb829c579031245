package web

import (
	"embed"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/format"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html"))

// descriptionPolicy keeps the links and inline formatting the API embeds in
// coin descriptions and drops scripts, styles and event handlers.
var descriptionPolicy = bluemonday.UGCPolicy()

var templateFuncs = template.FuncMap{
	"currency":   format.Currency,
	"percentage": format.Percentage,
	"large":      format.LargeNumber,
	"number":     format.Number,
	"rank":       format.Rank,
	"date":       format.Date,
	"upper":      strings.ToUpper,
	"ptr":        func(v float64) *float64 { return &v },
	"in": func(m domain.CurrencyMap, code string) *float64 {
		return m.In(code)
	},
	"changeClass": func(v *float64) string {
		switch {
		case v == nil:
			return ""
		case *v >= 0:
			return "up"
		default:
			return "down"
		}
	},
	"sortMark": func(cfg domain.SortConfig, key string) string {
		if string(cfg.Key) != key {
			return ""
		}
		if cfg.Direction == domain.SortAsc {
			return "▲"
		}
		return "▼"
	},
	"description": func(s string) template.HTML {
		return template.HTML(descriptionPolicy.Sanitize(s))
	},
	"currencies": func() []domain.Currency { return domain.Currencies },
	"timeRanges": func() []domain.TimeRange { return domain.TimeRanges },
	"pages": func(n int) []int {
		out := make([]int, n)
		for i := range out {
			out[i] = i + 1
		}
		return out
	},
}
