package chart

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/sidlin0932/dht-sensor-monitor/internal/modules/dashboard/types"
)

func readingsAt(start time.Time, temps, hums []types.Float) []types.Reading {
	out := make([]types.Reading, len(temps))
	for i := range temps {
		out[i] = types.Reading{
			Timestamp:   start.Add(time.Duration(i) * 10 * time.Minute),
			Temperature: temps[i],
			Humidity:    hums[i],
		}
	}
	return out
}

func TestRenderPNG(t *testing.T) {
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	null := types.Float{}

	tests := []struct {
		name    string
		temps   []types.Float
		hums    []types.Float
		wantErr error
	}{
		{
			name:  "both series",
			temps: []types.Float{types.F(22.1), types.F(22.8), types.F(23.4), types.F(23.0)},
			hums:  []types.Float{types.F(55), types.F(54), types.F(52.5), types.F(53)},
		},
		{
			name:  "flat temperature",
			temps: []types.Float{types.F(24), types.F(24), types.F(24)},
			hums:  []types.Float{types.F(50), types.F(51), types.F(52)},
		},
		{
			name:  "humidity only",
			temps: []types.Float{null, null, null},
			hums:  []types.Float{types.F(40), types.F(45), types.F(47)},
		},
		{
			name:  "nulls skipped",
			temps: []types.Float{types.F(20), null, types.F(21)},
			hums:  []types.Float{null, types.F(60), null},
		},
		{
			name:    "single point per series",
			temps:   []types.Float{types.F(20), null},
			hums:    []types.Float{null, types.F(60)},
			wantErr: ErrNotEnoughData,
		},
		{
			name:    "empty",
			wantErr: ErrNotEnoughData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			series := types.ChartSeries{Hours: 24, Readings: readingsAt(start, tt.temps, tt.hums)}
			err := RenderPNG(&buf, series, Options{Width: 400, Height: 200, Location: time.UTC})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RenderPNG error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RenderPNG error = %v", err)
			}
			img, err := png.Decode(&buf)
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 200 {
				t.Errorf("size = %dx%d; want 400x200", b.Dx(), b.Dy())
			}
		})
	}
}

func TestValueRange(t *testing.T) {
	lo, hi := valueRange([]float64{22.4, 25.6, 23})
	if lo != 21 || hi != 27 {
		t.Errorf("valueRange = %v..%v; want 21..27", lo, hi)
	}
	lo, hi = valueRange(nil)
	if lo != 0 || hi != 40 {
		t.Errorf("valueRange(nil) = %v..%v; want 0..40", lo, hi)
	}
}

func TestTimeRange_SameInstant(t *testing.T) {
	ts := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	lo, hi := timeRange([]time.Time{ts, ts})
	if hi <= lo {
		t.Errorf("timeRange = %v..%v; want non-empty", lo, hi)
	}
}
