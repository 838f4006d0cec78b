package pcrforecast

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

var ErrNoResults = errors.New("no results to plot")

const (
	DefaultPlotTitle  = "COVID-19 positive rate prediction in Japan"
	DefaultPlotWidth  = 800
	DefaultPlotHeight = 800

	// echarts renders this value as a gap in a line series
	missingValue = "-"
)

// PlotOpts configures the forecast chart
type PlotOpts struct {
	Title    string
	Width    int
	Height   int
	Bounds   bool
	Holidays bool
}

func NewDefaultPlotOpts() *PlotOpts {
	return &PlotOpts{
		Title:    DefaultPlotTitle,
		Width:    DefaultPlotWidth,
		Height:   DefaultPlotHeight,
		Bounds:   true,
		Holidays: true,
	}
}

// LineForecaster generates an echart line chart of the smoothed positivity rate followed by the
// forecast. The forecast series starts at the last actual point so both lines connect.
func LineForecaster(res *Results, opt *PlotOpts) *charts.Line {
	if opt == nil {
		opt = NewDefaultPlotOpts()
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(
			opts.Initialization{
				Width:  fmt.Sprintf("%dpx", opt.Width),
				Height: fmt.Sprintf("%dpx", opt.Height),
			},
		),
		charts.WithTitleOpts(
			opts.Title{
				Title: opt.Title,
			},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Rate(%)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	numActual := len(res.Actual)
	numForecast := len(res.T)
	n := numActual + numForecast

	x := make([]string, 0, n)
	lineDataActual := make([]opts.LineData, 0, n)
	lineDataForecast := make([]opts.LineData, 0, n)
	lineDataUpper := make([]opts.LineData, 0, n)
	lineDataLower := make([]opts.LineData, 0, n)

	for i, a := range res.Actual {
		x = append(x, a.Date.Format(time.DateOnly))
		lineDataActual = append(lineDataActual, opts.LineData{Value: a.PositiveRate})

		var fv, uv, lv interface{} = missingValue, missingValue, missingValue
		if i == numActual-1 {
			fv, uv, lv = a.PositiveRate, a.PositiveRate, a.PositiveRate
		}
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: fv})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: uv})
		lineDataLower = append(lineDataLower, opts.LineData{Value: lv})
	}
	for i, t := range res.T {
		x = append(x, t.Format(time.DateOnly))
		lineDataActual = append(lineDataActual, opts.LineData{Value: missingValue})
		lineDataForecast = append(lineDataForecast, opts.LineData{Value: res.Forecast[i]})
		lineDataUpper = append(lineDataUpper, opts.LineData{Value: res.Upper[i]})
		lineDataLower = append(lineDataLower, opts.LineData{Value: res.Lower[i]})
	}

	var markLines []charts.SeriesOpts
	if opt.Holidays {
		for _, h := range res.Holidays {
			markLines = append(markLines, charts.WithMarkLineNameXAxisItemOpts(
				opts.MarkLineNameXAxisItem{
					Name:  h.Name,
					XAxis: h.Start.Format(time.DateOnly),
				},
			))
		}
	}

	line.SetXAxis(x).
		AddSeries("Actuality", lineDataActual, markLines...).
		AddSeries("Prediction", lineDataForecast)
	if opt.Bounds {
		line.AddSeries("Upper", lineDataUpper).
			AddSeries("Lower", lineDataLower)
	}
	return line
}

// PlotForecast renders the forecast chart as an html page
func PlotForecast(w io.Writer, res *Results, opt *PlotOpts) error {
	if res == nil || (len(res.Actual) == 0 && len(res.T) == 0) {
		return ErrNoResults
	}

	page := components.NewPage()
	page.AddCharts(LineForecaster(res, opt))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("unable to render forecast chart, %w", err)
	}
	return nil
}
