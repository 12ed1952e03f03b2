// Package display holds the pure classification and formatting rules of the
// dashboard. Nothing here does I/O or reads the clock.
package display

import (
	"math"
	"strconv"
	"strings"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

// Placeholder is shown for a value that has not been received yet or was
// cleared.
const Placeholder = "--"

type Comfort struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

var (
	ComfortVeryComfortable = Comfort{Key: "very_comfortable", Label: "Very comfortable", Emoji: "😊"}
	ComfortComfortable     = Comfort{Key: "comfortable", Label: "Comfortable", Emoji: "🙂"}
	ComfortHotHumid        = Comfort{Key: "hot_humid", Label: "Hot and humid", Emoji: "🥵"}
	ComfortCold            = Comfort{Key: "cold", Label: "Cold", Emoji: "🥶"}
	ComfortDry             = Comfort{Key: "dry", Label: "Dry", Emoji: "🏜️"}
	ComfortNeutral         = Comfort{Key: "neutral", Label: "Neutral", Emoji: "😐"}
)

// ClassifyComfort walks the bands in priority order and returns the first
// match. NaN inputs fail every comparison.
func ClassifyComfort(temp, humidity float64) Comfort {
	switch {
	case temp >= 20 && temp <= 26 && humidity >= 40 && humidity <= 60:
		return ComfortVeryComfortable
	case temp >= 18 && temp <= 28 && humidity >= 30 && humidity <= 70:
		return ComfortComfortable
	case temp > 30 || humidity > 80:
		return ComfortHotHumid
	case temp < 15:
		return ComfortCold
	case humidity < 30:
		return ComfortDry
	default:
		return ComfortNeutral
	}
}

type AirQuality struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Class string `json:"class"`
}

var (
	AirExcellent = AirQuality{Key: "excellent", Label: "Excellent", Class: "aq-excellent"}
	AirGood      = AirQuality{Key: "good", Label: "Good", Class: "aq-good"}
	AirModerate  = AirQuality{Key: "moderate", Label: "Moderate", Class: "aq-moderate"}
	AirPoor      = AirQuality{Key: "poor", Label: "Poor", Class: "aq-poor"}
	AirHazardous = AirQuality{Key: "hazardous", Label: "Hazardous", Class: "aq-hazardous"}
)

// ClassifyAirQuality bands a CO2-equivalent ppm value by upper bound.
func ClassifyAirQuality(ppm float64) AirQuality {
	switch {
	case ppm <= 400:
		return AirExcellent
	case ppm <= 600:
		return AirGood
	case ppm <= 1000:
		return AirModerate
	case ppm <= 2000:
		return AirPoor
	default:
		return AirHazardous
	}
}

type Direction string

const (
	Rising  Direction = "rising"
	Falling Direction = "falling"
	Stable  Direction = "stable"
)

type Trend struct {
	Direction Direction `json:"direction"`
	// Delta is the absolute change rounded to one decimal.
	Delta float64 `json:"delta"`
}

func (t Trend) Icon() string {
	switch t.Direction {
	case Rising:
		return "↑"
	case Falling:
		return "↓"
	default:
		return "→"
	}
}

func (t Trend) Text() string {
	switch t.Direction {
	case Rising:
		return "Rising " + FormatFixed(t.Delta, 1)
	case Falling:
		return "Falling " + FormatFixed(t.Delta, 1)
	default:
		return "Stable"
	}
}

// ComputeTrend compares against the previous value. Without one there is
// no trend at all, not a stable one.
func ComputeTrend(current float64, previous *float64) (Trend, bool) {
	if previous == nil {
		return Trend{}, false
	}
	diff := current - *previous
	delta := math.Round(math.Abs(diff)*10) / 10
	switch {
	case diff > 0.5:
		return Trend{Direction: Rising, Delta: delta}, true
	case diff < -0.5:
		return Trend{Direction: Falling, Delta: delta}, true
	default:
		return Trend{Direction: Stable, Delta: delta}, true
	}
}

// FormatFixed renders v with a fixed number of decimals. Exact halfway
// values round away from zero.
func FormatFixed(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	if decimals < 0 {
		decimals = 0
	}

	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	if isExactTie(math.Abs(v), decimals) && s == truncateFixed(math.Abs(v), decimals) {
		s = incrementDecimal(s)
	}
	if v < 0 {
		s = "-" + s
	}
	return s
}

// exactDigits is enough to print any float64 without rounding.
const exactDigits = 1100

func isExactTie(v float64, decimals int) bool {
	exact := strings.TrimRight(strconv.FormatFloat(v, 'f', exactDigits, 64), "0")
	dot := strings.IndexByte(exact, '.')
	frac := exact[dot+1:]
	return len(frac) == decimals+1 && frac[decimals] == '5'
}

func truncateFixed(v float64, decimals int) string {
	exact := strconv.FormatFloat(v, 'f', exactDigits, 64)
	dot := strings.IndexByte(exact, '.')
	if decimals == 0 {
		return exact[:dot]
	}
	return exact[:dot+1+decimals]
}

func incrementDecimal(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '.' {
			continue
		}
		if b[i] < '9' {
			b[i]++
			return string(b)
		}
		b[i] = '0'
	}
	return "1" + string(b)
}

// FormatNumber renders a number the way the sensor API printed it: shortest
// representation, no trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DisplayState is the previous temperature and humidity, kept only to
// compute trends between consecutive polls.
type DisplayState struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
}

// CurrentView is what one current-reading payload changes. Nil fields are
// left as they are on screen.
type CurrentView struct {
	Temperature   *string
	Humidity      *string
	HeatIndex     *string
	AirQuality    *string
	TempTrend     *Trend
	HumidityTrend *Trend
	Comfort       Comfort
	Air           *AirQuality
}

// ApplyCurrent formats every present field, computes temperature and
// humidity trends against state and returns the state for the next poll.
func ApplyCurrent(state DisplayState, data types.CurrentData) (DisplayState, CurrentView) {
	var view CurrentView
	next := state

	if data.Temperature.Valid {
		temp := data.Temperature.Value
		s := FormatFixed(temp, 1)
		view.Temperature = &s
		if tr, ok := ComputeTrend(temp, state.Temperature); ok {
			view.TempTrend = &tr
		}
		next.Temperature = &temp
	}

	if data.Humidity.Valid {
		hum := data.Humidity.Value
		s := FormatFixed(hum, 1)
		view.Humidity = &s
		if tr, ok := ComputeTrend(hum, state.Humidity); ok {
			view.HumidityTrend = &tr
		}
		next.Humidity = &hum
	}

	if data.HeatIndex.Valid {
		s := FormatFixed(data.HeatIndex.Value, 1)
		view.HeatIndex = &s
	}

	if data.AirQuality.Valid {
		s := FormatFixed(data.AirQuality.Value, 0)
		view.AirQuality = &s
		aq := ClassifyAirQuality(data.AirQuality.Value)
		view.Air = &aq
	}

	view.Comfort = ClassifyComfort(data.Temperature.OrNaN(), data.Humidity.OrNaN())
	return next, view
}
