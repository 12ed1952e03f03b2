package controller

import (
	"context"
	"sync"
	"time"

	"github.com/hako/durafmt"
	"github.com/remeh/sizedwaitgroup"
)

// LoadInitial runs all four refreshes at once and returns when every one
// has settled. A failing refresh does not hold up the others.
func (c *Controller) LoadInitial(ctx context.Context) {
	refreshes := []func(context.Context){
		c.RefreshCurrent,
		func(ctx context.Context) { c.RefreshStats(ctx, c.opts.StatsHours) },
		c.RefreshSystemInfo,
		func(ctx context.Context) { c.RefreshChart(ctx, c.currentChartHours()) },
	}

	swg := sizedwaitgroup.New(len(refreshes))
	for _, refresh := range refreshes {
		swg.Add()
		go func() {
			defer swg.Done()
			refresh(ctx)
		}()
	}
	swg.Wait()

	c.mu.Lock()
	c.doc.Initialized = true
	c.mu.Unlock()
	c.logger.Info("dashboard initialized")
}

// Run loads the dashboard and then polls on four independent tickers until
// ctx is done. Every tick starts its own refresh, so a slow request never
// delays or cancels the next one. Run returns once in-flight refreshes end.
func (c *Controller) Run(ctx context.Context) {
	c.LoadInitial(ctx)

	c.logger.Info("polling started",
		"current", durafmt.Parse(c.opts.CurrentInterval).String(),
		"stats", durafmt.Parse(c.opts.StatsInterval).String(),
		"chart", durafmt.Parse(c.opts.ChartInterval).String(),
		"status", durafmt.Parse(c.opts.StatusInterval).String(),
	)

	var wg sync.WaitGroup
	every := func(interval time.Duration, refresh func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					wg.Add(1)
					go func() {
						defer wg.Done()
						refresh(ctx)
					}()
				}
			}
		}()
	}

	every(c.opts.CurrentInterval, c.RefreshCurrent)
	every(c.opts.StatsInterval, func(ctx context.Context) { c.RefreshStats(ctx, c.opts.StatsHours) })
	every(c.opts.ChartInterval, func(ctx context.Context) { c.RefreshChart(ctx, c.currentChartHours()) })
	every(c.opts.StatusInterval, c.RefreshSystemInfo)

	<-ctx.Done()
	wg.Wait()
	c.logger.Info("polling stopped")
}
