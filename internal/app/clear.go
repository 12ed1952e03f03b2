package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sidlin0932/dht-sensor-monitor/internal/config"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/client"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/controller"
	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/notify"
)

type ClearMode string

const (
	ClearSoft ClearMode = "soft"
	ClearHard ClearMode = "hard"
)

// Clear runs a soft or hard clear against the sensor API directly, without
// the offline cache, and writes the outcome to out. confirm is only asked
// for a hard clear.
func Clear(ctx context.Context, cfg config.Config, httpClient *http.Client, mode ClearMode, confirm controller.Confirmer, out io.Writer, logger *slog.Logger) error {
	notifier := notify.NewCenter(nil)
	ctrl := controller.New(client.New(cfg.APIBaseURL, httpClient, logger), notifier, controller.OptionsFromConfig(cfg), logger)

	var err error
	switch mode {
	case ClearSoft:
		err = ctrl.SoftClear(ctx)
	case ClearHard:
		_, err = ctrl.HardClear(ctx, confirm)
	default:
		return fmt.Errorf("unknown clear mode %q (allowed: soft, hard)", mode)
	}

	for _, n := range notifier.Active() {
		fmt.Fprintln(out, n.Message)
	}
	return err
}
