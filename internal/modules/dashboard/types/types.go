// Package types holds the sensor API payloads and the readings decoded from
// them.
package types

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/jsonx"
)

// Float is a nullable number. It decodes from a JSON number, a numeric
// string or null; anything else decodes as absent.
type Float struct {
	Value float64
	Valid bool
}

func F(v float64) Float { return Float{Value: v, Valid: true} }

// OrNaN returns the value, or NaN when absent so every comparison is false.
func (f Float) OrNaN() float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Value
}

func (f *Float) UnmarshalJSON(data []byte) error {
	*f = Float{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := jsonx.Unmarshal(data, &s); err != nil {
			return nil
		}
		data = []byte(strings.TrimSpace(s))
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*f = Float{Value: v, Valid: true}
	return nil
}

func (f Float) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f.Value, 'f', -1, 64), nil
}

// Reading is one timestamped sensor sample.
type Reading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature Float     `json:"temperature"`
	Humidity    Float     `json:"humidity"`
	HeatIndex   Float     `json:"heat_index"`
	AirQuality  Float     `json:"air_quality"`
}

// timestampLayouts are tried in order. The sensor API renders timestamps with
// Python's str(datetime), which has a space separator and no zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
}

// ParseTimestamp parses a sensor API timestamp. Zone-less values are read
// in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type Envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Offline bool   `json:"offline,omitempty"`
}

type CurrentData struct {
	Temperature Float  `json:"temperature"`
	Humidity    Float  `json:"humidity"`
	HeatIndex   Float  `json:"heat_index"`
	AirQuality  Float  `json:"air_quality"`
	Timestamp   string `json:"timestamp,omitempty"`
}

type CurrentResponse struct {
	Envelope
	Data CurrentData `json:"data"`
}

type Aggregate struct {
	Avg Float `json:"avg"`
	Max Float `json:"max"`
	Min Float `json:"min"`
}

type Stats struct {
	Count       int       `json:"count"`
	Temperature Aggregate `json:"temperature"`
	Humidity    Aggregate `json:"humidity"`
	Hours       int       `json:"hours,omitempty"`
}

type StatsResponse struct {
	Envelope
	Stats Stats `json:"stats"`
}

type LastReading struct {
	Temperature Float   `json:"temperature"`
	Humidity    Float   `json:"humidity"`
	Timestamp   string  `json:"timestamp"`
	MinutesAgo  float64 `json:"minutes_ago"`
}

type StatusResponse struct {
	Envelope
	TotalReadings int          `json:"total_readings"`
	SensorStatus  string       `json:"sensor_status"`
	ServerTime    string       `json:"server_time,omitempty"`
	LastReading   *LastReading `json:"last_reading,omitempty"`
}

type HistoryRow struct {
	Timestamp   string `json:"timestamp"`
	Temperature Float  `json:"temperature"`
	Humidity    Float  `json:"humidity"`
	HeatIndex   Float  `json:"heat_index"`
	AirQuality  Float  `json:"air_quality"`
}

// Reading converts the row, reporting false when the timestamp is unusable.
func (r HistoryRow) Reading(loc *time.Location) (Reading, bool) {
	ts, ok := ParseTimestamp(r.Timestamp, loc)
	if !ok {
		return Reading{}, false
	}
	return Reading{
		Timestamp:   ts,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		HeatIndex:   r.HeatIndex,
		AirQuality:  r.AirQuality,
	}, true
}

type HistoryResponse struct {
	Envelope
	Hours int          `json:"hours,omitempty"`
	Count int          `json:"count,omitempty"`
	Data  []HistoryRow `json:"data"`
}

type HardClearRequest struct {
	Confirm bool `json:"confirm"`
}

type ClearResponse struct {
	Envelope
	DeletedCount int `json:"deleted_count"`
}

// ChartSeries is the history window on the chart. It is replaced wholesale
// on every refresh.
type ChartSeries struct {
	Hours    int       `json:"hours"`
	Readings []Reading `json:"readings"`
}
