package controller

import (
	"strconv"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/display"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusDelayed Status = "delayed"
	StatusOffline Status = "offline"
)

func (s Status) Label() string {
	switch s {
	case StatusOnline:
		return "Connected"
	case StatusDelayed:
		return "Delayed"
	default:
		return "Offline"
	}
}

type StatsView struct {
	AvgTemperature string `json:"avg_temperature"`
	MaxTemperature string `json:"max_temperature"`
	MinTemperature string `json:"min_temperature"`
	AvgHumidity    string `json:"avg_humidity"`
	MaxHumidity    string `json:"max_humidity"`
	MinHumidity    string `json:"min_humidity"`
}

func placeholderStats() StatsView {
	p := display.Placeholder
	return StatsView{p, p, p, p, p, p}
}

type RangeOption struct {
	Hours  int    `json:"hours"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Document is everything the dashboard shows. The controller owns the only
// live copy; renderers work on snapshots.
type Document struct {
	Status      Status    `json:"status"`
	StatusLabel string    `json:"status_label"`
	LastUpdate  time.Time `json:"last_update"`

	Temperature   string              `json:"temperature"`
	Humidity      string              `json:"humidity"`
	HeatIndex     string              `json:"heat_index"`
	AirQuality    string              `json:"air_quality"`
	TempTrend     *display.Trend      `json:"temperature_trend,omitempty"`
	HumidityTrend *display.Trend      `json:"humidity_trend,omitempty"`
	Comfort       *display.Comfort    `json:"comfort,omitempty"`
	Air           *display.AirQuality `json:"air,omitempty"`

	Stats StatsView `json:"stats"`

	TotalReadings  string `json:"total_readings"`
	ServerTime     string `json:"server_time,omitempty"`
	LastReadingAgo string `json:"last_reading_ago,omitempty"`

	Chart  types.ChartSeries `json:"chart"`
	Ranges []RangeOption     `json:"ranges"`

	Notifications []notify.Notification `json:"notifications"`
	Initialized   bool                  `json:"initialized"`
}

// LastUpdateText is the wall-clock time of the last applied reading.
func (d Document) LastUpdateText(loc *time.Location) string {
	if d.LastUpdate.IsZero() {
		return display.Placeholder
	}
	if loc == nil {
		loc = time.Local
	}
	return d.LastUpdate.In(loc).Format("15:04:05")
}

// ActiveRange returns the selected chart window.
func (d Document) ActiveRange() (RangeOption, bool) {
	for _, r := range d.Ranges {
		if r.Active {
			return r, true
		}
	}
	return RangeOption{}, false
}

func newDocument(ranges []int, active int) Document {
	p := display.Placeholder
	doc := Document{
		Status:        StatusOffline,
		StatusLabel:   StatusOffline.Label(),
		Temperature:   p,
		Humidity:      p,
		HeatIndex:     p,
		AirQuality:    p,
		Stats:         placeholderStats(),
		TotalReadings: p,
		Chart:         types.ChartSeries{Hours: active},
	}
	for _, h := range ranges {
		doc.Ranges = append(doc.Ranges, RangeOption{Hours: h, Label: rangeLabel(h), Active: h == active})
	}
	return doc
}

func rangeLabel(hours int) string {
	if hours > 24 && hours%24 == 0 {
		return strconv.Itoa(hours/24) + "d"
	}
	return strconv.Itoa(hours) + "h"
}

func (d Document) clone() Document {
	out := d
	out.Chart.Readings = append([]types.Reading(nil), d.Chart.Readings...)
	out.Ranges = append([]RangeOption(nil), d.Ranges...)
	if d.TempTrend != nil {
		t := *d.TempTrend
		out.TempTrend = &t
	}
	if d.HumidityTrend != nil {
		t := *d.HumidityTrend
		out.HumidityTrend = &t
	}
	if d.Comfort != nil {
		c := *d.Comfort
		out.Comfort = &c
	}
	if d.Air != nil {
		a := *d.Air
		out.Air = &a
	}
	out.Notifications = nil
	return out
}
