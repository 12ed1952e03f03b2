// Package chart renders the temperature and humidity history as a PNG.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

// ErrNotEnoughData means no series has two plottable points.
var ErrNotEnoughData = errors.New("chart: not enough data")

const (
	DefaultWidth  = 960
	DefaultHeight = 360
)

var (
	temperatureColor = drawing.ColorFromHex("ff6b6b")
	humidityColor    = drawing.ColorFromHex("4ecdc4")
)

type Options struct {
	Width    int
	Height   int
	Location *time.Location
}

type line struct {
	xs []time.Time
	ys []float64
}

func (l *line) add(ts time.Time, f types.Float) {
	if !f.Valid {
		return
	}
	l.xs = append(l.xs, ts)
	l.ys = append(l.ys, f.Value)
}

func (l line) plottable() bool { return len(l.xs) >= 2 }

// RenderPNG draws temperature on the left axis and humidity on the right
// axis, fixed at 0-100. Missing values are skipped per series.
func RenderPNG(w io.Writer, series types.ChartSeries, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}

	var temp, hum line
	for _, r := range series.Readings {
		ts := r.Timestamp.In(opts.Location)
		temp.add(ts, r.Temperature)
		hum.add(ts, r.Humidity)
	}
	if !temp.plottable() && !hum.plottable() {
		return ErrNotEnoughData
	}

	var plotted []gochart.Series
	var xs []time.Time
	if temp.plottable() {
		plotted = append(plotted, gochart.TimeSeries{
			Name:    "Temperature (°C)",
			XValues: temp.xs,
			YValues: temp.ys,
			Style: gochart.Style{
				StrokeColor: temperatureColor,
				FillColor:   temperatureColor.WithAlpha(25),
				StrokeWidth: 2,
			},
		})
		xs = append(xs, temp.xs...)
	}
	if hum.plottable() {
		plotted = append(plotted, gochart.TimeSeries{
			Name:    "Humidity (%)",
			XValues: hum.xs,
			YValues: hum.ys,
			YAxis:   gochart.YAxisSecondary,
			Style: gochart.Style{
				StrokeColor: humidityColor,
				FillColor:   humidityColor.WithAlpha(25),
				StrokeWidth: 2,
			},
		})
		xs = append(xs, hum.xs...)
	}

	tMin, tMax := valueRange(temp.ys)
	xMin, xMax := timeRange(xs)

	ch := gochart.Chart{
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 12}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat("15:04"),
			Range:          &gochart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: gochart.YAxis{
			Name:      "Temperature (°C)",
			NameStyle: gochart.Style{FontColor: temperatureColor},
			Style:     gochart.Style{FontColor: temperatureColor},
			Range:     &gochart.ContinuousRange{Min: tMin, Max: tMax},
		},
		YAxisSecondary: gochart.YAxis{
			Name:      "Humidity (%)",
			NameStyle: gochart.Style{FontColor: humidityColor},
			Style:     gochart.Style{FontColor: humidityColor},
			Range:     &gochart.ContinuousRange{Min: 0, Max: 100},
		},
		Series: plotted,
	}
	ch.Elements = []gochart.Renderable{gochart.LegendThin(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// valueRange pads the temperature axis so a flat line still has height.
func valueRange(ys []float64) (float64, float64) {
	if len(ys) == 0 {
		return 0, 40
	}
	lo, hi := ys[0], ys[0]
	for _, y := range ys[1:] {
		lo = math.Min(lo, y)
		hi = math.Max(hi, y)
	}
	return math.Floor(lo) - 1, math.Ceil(hi) + 1
}

func timeRange(xs []time.Time) (float64, float64) {
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.Before(lo) {
			lo = x
		}
		if x.After(hi) {
			hi = x
		}
	}
	if !hi.After(lo) {
		hi = lo.Add(time.Minute)
	}
	return gochart.TimeToFloat64(lo), gochart.TimeToFloat64(hi)
}
