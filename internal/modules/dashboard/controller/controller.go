// Package controller keeps the dashboard document up to date by polling the
// sensor API. Poll failures change what is shown; they are never returned.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/display"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

var (
	ErrNotConfirmed = errors.New("hard clear not confirmed")
	ErrClearFailed  = errors.New("clear failed")
	ErrInvalidRange = errors.New("invalid chart range")
)

// API is the subset of the sensor API the dashboard polls.
type API interface {
	Current(ctx context.Context) (*types.CurrentResponse, bool)
	Stats(ctx context.Context, hours int) (*types.StatsResponse, bool)
	Status(ctx context.Context) (*types.StatusResponse, bool)
	History(ctx context.Context, hours int) (*types.HistoryResponse, bool)
	SoftClear(ctx context.Context) (*types.ClearResponse, bool)
	HardClear(ctx context.Context) (*types.ClearResponse, bool)
}

type Options struct {
	CurrentInterval time.Duration
	StatsInterval   time.Duration
	ChartInterval   time.Duration
	StatusInterval  time.Duration
	ChartHours      int
	StatsHours      int
	RangeHours      []int
	Location        *time.Location
	Now             func() time.Time
}

func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		CurrentInterval: cfg.CurrentInterval,
		StatsInterval:   cfg.StatsInterval,
		ChartInterval:   cfg.ChartInterval,
		StatusInterval:  cfg.StatusInterval,
		ChartHours:      cfg.ChartHours,
		StatsHours:      cfg.StatsHours,
		RangeHours:      append([]int(nil), cfg.RangeHours...),
	}
}

func (o Options) withDefaults() Options {
	if o.CurrentInterval <= 0 {
		o.CurrentInterval = 5 * time.Second
	}
	if o.StatsInterval <= 0 {
		o.StatsInterval = time.Minute
	}
	if o.ChartInterval <= 0 {
		o.ChartInterval = time.Minute
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = 30 * time.Second
	}
	if o.ChartHours <= 0 {
		o.ChartHours = 24
	}
	if o.StatsHours <= 0 {
		o.StatsHours = 24
	}
	if len(o.RangeHours) == 0 {
		o.RangeHours = append([]int(nil), config.DefaultRangeHours...)
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type endpoint int

const (
	epCurrent endpoint = iota
	epStats
	epStatus
	epChart
	numEndpoints
)

func (e endpoint) String() string {
	return [...]string{"current", "stats", "status", "chart"}[e]
}

type Controller struct {
	api      API
	notifier *notify.Center
	opts     Options
	logger   *slog.Logger

	mu         sync.Mutex
	doc        Document
	state      display.DisplayState
	chartHours int

	// issued and applied hold per-endpoint sequence numbers. A response is
	// applied only when its sequence is newer than the last applied one.
	issued  [numEndpoints]uint64
	applied [numEndpoints]uint64
}

func New(api API, notifier *notify.Center, opts Options, logger *slog.Logger) *Controller {
	opts = opts.withDefaults()
	if notifier == nil {
		notifier = notify.NewCenter(opts.Now)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		api:        api,
		notifier:   notifier,
		opts:       opts,
		logger:     logger,
		doc:        newDocument(opts.RangeHours, opts.ChartHours),
		chartHours: opts.ChartHours,
	}
}

func (c *Controller) Options() Options { return c.opts }

// Snapshot returns a deep copy of the document with the live notifications.
func (c *Controller) Snapshot() Document {
	c.mu.Lock()
	doc := c.doc.clone()
	c.mu.Unlock()
	doc.Notifications = c.notifier.Active()
	return doc
}

// ChartSeries returns a copy of the chart data.
func (c *Controller) ChartSeries() types.ChartSeries {
	c.mu.Lock()
	defer c.mu.Unlock()
	return types.ChartSeries{
		Hours:    c.doc.Chart.Hours,
		Readings: append([]types.Reading(nil), c.doc.Chart.Readings...),
	}
}

func (c *Controller) Notifier() *notify.Center { return c.notifier }

func (c *Controller) begin(ep endpoint) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued[ep]++
	return c.issued[ep]
}

// accept must be called with c.mu held.
func (c *Controller) accept(ep endpoint, seq uint64) bool {
	if seq <= c.applied[ep] {
		c.logger.Debug("discarding stale response", "endpoint", ep.String(), "seq", seq, "applied", c.applied[ep])
		return false
	}
	c.applied[ep] = seq
	return true
}

// invalidate drops every response still in flight for the endpoints. Must
// be called with c.mu held.
func (c *Controller) invalidate(eps ...endpoint) {
	for _, ep := range eps {
		c.applied[ep] = c.issued[ep]
	}
}

// setStatus must be called with c.mu held.
func (c *Controller) setStatus(s Status) {
	if c.doc.Status != s {
		c.logger.Info("connection status changed", "from", string(c.doc.Status), "to", string(s))
	}
	c.doc.Status = s
	c.doc.StatusLabel = s.Label()
}

// RefreshCurrent polls the latest reading. A failed poll marks the
// connection offline and leaves every value as it was.
func (c *Controller) RefreshCurrent(ctx context.Context) {
	seq := c.begin(epCurrent)
	resp, ok := c.api.Current(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.accept(epCurrent, seq) {
		return
	}
	if !ok || !resp.Success {
		c.setStatus(StatusOffline)
		return
	}

	next, view := display.ApplyCurrent(c.state, resp.Data)
	c.state = next
	if view.Temperature != nil {
		c.doc.Temperature = *view.Temperature
		c.doc.TempTrend = view.TempTrend
	}
	if view.Humidity != nil {
		c.doc.Humidity = *view.Humidity
		c.doc.HumidityTrend = view.HumidityTrend
	}
	if view.HeatIndex != nil {
		c.doc.HeatIndex = *view.HeatIndex
	}
	if view.AirQuality != nil {
		c.doc.AirQuality = *view.AirQuality
	}
	if view.Air != nil {
		c.doc.Air = view.Air
	}
	comfort := view.Comfort
	c.doc.Comfort = &comfort

	c.setStatus(StatusOnline)
	c.doc.LastUpdate = c.opts.Now()
}

// RefreshStats polls aggregates over the window. An empty window keeps the
// previous figures on screen.
func (c *Controller) RefreshStats(ctx context.Context, hours int) {
	seq := c.begin(epStats)
	resp, ok := c.api.Stats(ctx, clampHours(hours))

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.accept(epStats, seq) {
		return
	}
	if !ok || !resp.Success || resp.Stats.Count <= 0 {
		return
	}

	s := resp.Stats
	c.doc.Stats = StatsView{
		AvgTemperature: withUnit(s.Temperature.Avg, "°C"),
		MaxTemperature: withUnit(s.Temperature.Max, "°C"),
		MinTemperature: withUnit(s.Temperature.Min, "°C"),
		AvgHumidity:    withUnit(s.Humidity.Avg, "%"),
		MaxHumidity:    withUnit(s.Humidity.Max, "%"),
		MinHumidity:    withUnit(s.Humidity.Min, "%"),
	}
}

// RefreshSystemInfo polls the reading count and the sensor link state.
func (c *Controller) RefreshSystemInfo(ctx context.Context) {
	seq := c.begin(epStatus)
	resp, ok := c.api.Status(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.accept(epStatus, seq) {
		return
	}
	if !ok || !resp.Success {
		return
	}

	c.doc.TotalReadings = humanize.Comma(int64(resp.TotalReadings))
	switch resp.SensorStatus {
	case "online":
		c.setStatus(StatusOnline)
	case "delayed":
		c.setStatus(StatusDelayed)
	default:
		c.setStatus(StatusOffline)
	}

	c.doc.ServerTime = ""
	if ts, ok := types.ParseTimestamp(resp.ServerTime, c.opts.Location); ok {
		c.doc.ServerTime = ts.In(c.opts.Location).Format("2006-01-02 15:04:05")
	}
	c.doc.LastReadingAgo = ""
	if lr := resp.LastReading; lr != nil {
		ago := time.Duration(lr.MinutesAgo * float64(time.Minute)).Round(time.Second)
		c.doc.LastReadingAgo = durafmt.Parse(ago).LimitFirstN(2).String() + " ago"
	}
}

// RefreshChart replaces the chart with the history window. An empty
// history keeps the current chart.
func (c *Controller) RefreshChart(ctx context.Context, hours int) {
	hours = clampHours(hours)
	seq := c.begin(epChart)
	resp, ok := c.api.History(ctx, hours)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.accept(epChart, seq) {
		return
	}
	if !ok || !resp.Success || len(resp.Data) == 0 {
		return
	}

	readings := make([]types.Reading, 0, len(resp.Data))
	for _, row := range resp.Data {
		r, ok := row.Reading(c.opts.Location)
		if !ok {
			c.logger.Debug("dropping history row with bad timestamp", "timestamp", row.Timestamp)
			continue
		}
		readings = append(readings, r)
	}
	if len(readings) == 0 {
		return
	}
	c.doc.Chart = types.ChartSeries{Hours: hours, Readings: readings}
}

// SelectRange makes hours the active chart window and refreshes the chart.
func (c *Controller) SelectRange(ctx context.Context, hours int) error {
	c.mu.Lock()
	idx := slices.IndexFunc(c.doc.Ranges, func(r RangeOption) bool { return r.Hours == hours })
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d hours", ErrInvalidRange, hours)
	}
	for i := range c.doc.Ranges {
		c.doc.Ranges[i].Active = i == idx
	}
	c.chartHours = hours
	c.mu.Unlock()

	c.RefreshChart(ctx, hours)
	return nil
}

func (c *Controller) currentChartHours() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chartHours
}

// SoftClear asks the API to reset live values. On success the current
// values and the chart are emptied; the aggregate stats stay.
func (c *Controller) SoftClear(ctx context.Context) error {
	resp, ok := c.api.SoftClear(ctx)
	if !ok || !resp.Success {
		msg := "Soft clear failed"
		if text := serverText(resp); text != "" {
			msg += ": " + text
		}
		c.notifier.Notify(msg, notify.KindError)
		c.logger.Warn("soft clear failed", "error", serverText(resp))
		return fmt.Errorf("%w: soft", ErrClearFailed)
	}

	c.mu.Lock()
	c.resetLive()
	c.invalidate(epCurrent, epChart)
	c.mu.Unlock()

	c.notifier.Notify("Live readings cleared", notify.KindSuccess)
	c.logger.Info("soft clear done")
	return nil
}

const (
	PromptHardClearFirst  = "This permanently deletes every stored reading. Continue?"
	PromptHardClearSecond = "Are you absolutely sure? This cannot be undone."
)

// HardClear deletes all stored history after two separate confirmations.
// It returns the number of deleted records.
func (c *Controller) HardClear(ctx context.Context, confirm Confirmer) (int, error) {
	if confirm == nil || !confirm.Confirm(ctx, PromptHardClearFirst) || !confirm.Confirm(ctx, PromptHardClearSecond) {
		return 0, ErrNotConfirmed
	}

	resp, ok := c.api.HardClear(ctx)
	if !ok || !resp.Success {
		msg := serverText(resp)
		if msg == "" {
			msg = "Hard clear failed"
		}
		c.notifier.Notify(msg, notify.KindError)
		c.logger.Warn("hard clear failed", "error", msg)
		return 0, fmt.Errorf("%w: %s", ErrClearFailed, msg)
	}

	c.mu.Lock()
	c.resetLive()
	c.doc.Stats = placeholderStats()
	c.doc.TotalReadings = display.Placeholder
	c.doc.LastReadingAgo = ""
	c.invalidate(epCurrent, epChart, epStats, epStatus)
	c.mu.Unlock()

	c.notifier.Notify(fmt.Sprintf("Deleted %s records", humanize.Comma(int64(resp.DeletedCount))), notify.KindSuccess)
	c.logger.Info("hard clear done", "deleted", resp.DeletedCount)
	return resp.DeletedCount, nil
}

// resetLive must be called with c.mu held.
func (c *Controller) resetLive() {
	p := display.Placeholder
	c.state = display.DisplayState{}
	c.doc.Temperature = p
	c.doc.Humidity = p
	c.doc.HeatIndex = p
	c.doc.AirQuality = p
	c.doc.TempTrend = nil
	c.doc.HumidityTrend = nil
	c.doc.Comfort = nil
	c.doc.Air = nil
	c.doc.Chart = types.ChartSeries{Hours: c.chartHours}
}

func serverText(resp *types.ClearResponse) string {
	if resp == nil {
		return ""
	}
	if resp.Error != "" {
		return resp.Error
	}
	return resp.Message
}

func withUnit(f types.Float, unit string) string {
	if !f.Valid {
		return display.Placeholder
	}
	return display.FormatNumber(f.Value) + unit
}

func clampHours(h int) int {
	return min(max(h, 1), config.MaxHours)
}
