package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"

	"github.com/hako/durafmt"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/display"
)

var dashboardTmpl *template.Template

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Tests use it to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call it during startup; if it
// fails, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// TrendView is a trend ready for display.
type TrendView struct {
	Class string
	Icon  string
	Text  string
}

// DashboardData is the view model of the dashboard page.
type DashboardData struct {
	Doc            controller.Document
	LastUpdate     string
	TempTrend      *TrendView
	HumidityTrend  *TrendView
	RefreshSeconds int
	Intervals      Intervals
	PromptFirst    string
	PromptSecond   string
	ChartURL       string
	HasChart       bool
}

// Intervals are the poll periods as readable text.
type Intervals struct {
	Current string
	Stats   string
	Chart   string
	Status  string
}

// NewDashboardData builds the page model from a document snapshot. The
// page reloads itself at the current-reading interval.
func NewDashboardData(doc controller.Document, opts controller.Options) *DashboardData {
	data := &DashboardData{
		Doc:            doc,
		LastUpdate:     doc.LastUpdateText(opts.Location),
		TempTrend:      trendView(doc.TempTrend),
		HumidityTrend:  trendView(doc.HumidityTrend),
		RefreshSeconds: int(opts.CurrentInterval.Seconds()),
		Intervals: Intervals{
			Current: durafmt.Parse(opts.CurrentInterval).String(),
			Stats:   durafmt.Parse(opts.StatsInterval).String(),
			Chart:   durafmt.Parse(opts.ChartInterval).String(),
			Status:  durafmt.Parse(opts.StatusInterval).String(),
		},
		PromptFirst:  controller.PromptHardClearFirst,
		PromptSecond: controller.PromptHardClearSecond,
		HasChart:     len(doc.Chart.Readings) >= 2,
	}
	// The query string changes with the data so browsers do not reuse a
	// stale image.
	data.ChartURL = "/chart.png?hours=" + strconv.Itoa(doc.Chart.Hours) + "&n=" + strconv.Itoa(len(doc.Chart.Readings))
	if !doc.LastUpdate.IsZero() {
		data.ChartURL += "&t=" + strconv.FormatInt(doc.LastUpdate.Unix(), 10)
	}
	return data
}

func trendView(t *display.Trend) *TrendView {
	if t == nil {
		return nil
	}
	return &TrendView{Class: string(t.Direction), Icon: t.Icon(), Text: t.Text()}
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderLivePartial executes only the live readings section, for clients
// that refresh it on their own.
func RenderLivePartial(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return dashboardTmpl.ExecuteTemplate(w, "live", data)
}
