package web

import (
	"errors"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vitos/cryptomaniac/internal/domain"
	"github.com/vitos/cryptomaniac/internal/format"
)

const (
	chartWidth  = 960
	chartHeight = 320
)

var errNotEnoughPoints = errors.New("not enough points to draw a chart")

// renderPriceChart draws the price line as a PNG. The line is green when the
// last price is not below the first and red otherwise.
func renderPriceChart(w io.Writer, points []domain.ChartPoint, currency string) error {
	if len(points) < 2 {
		return errNotEnoughPoints
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Time()
		ys[i] = p.Price
	}
	if flat(ys) {
		// go-chart refuses a zero-height range
		ys[0] += ys[0]*1e-9 + 1e-9
	}

	color := drawing.ColorRed
	if domain.Rising(points) {
		color = drawing.ColorGreen
	}

	graph := chart.Chart{
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return format.ShortDate(time.Unix(0, int64(f)))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return format.Currency(&f, currency)
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "price",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 2,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func flat(ys []float64) bool {
	for _, y := range ys[1:] {
		if y != ys[0] {
			return false
		}
	}
	return true
}
