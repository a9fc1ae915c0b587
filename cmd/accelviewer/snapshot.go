package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/iafilius/AccelMonitor/src/buffer"
	"github.com/iafilius/AccelMonitor/src/config"
	"github.com/iafilius/AccelMonitor/src/plot"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

// snapshotWidthOverride forces the snapshot width when > 0.
var snapshotWidthOverride = 0

// RunSnapshotMode connects to the sensor, collects up to samples readings (history
// length when samples <= 0) and writes a single chart PNG to outPath.
// It runs headlessly without creating a UI window. A stream that ends early or a
// timeout still produces a chart as long as at least one sample arrived.
func RunSnapshotMode(ctx context.Context, cfg *config.Config, outPath string, samples int, timeout time.Duration) error {
	if samples <= 0 {
		samples = cfg.HistoryLength
	}
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, timeout)
		defer cancelTimeout()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	url := cfg.WebSocketURL()
	sensor.Infof("snapshot: collecting %d samples from %s", samples, url)
	hist := buffer.New(cfg.HistoryLength)
	l := sensor.NewListener(url)
	var got atomic.Int64
	l.OnSample = func(s sensor.Sample) {
		stored := hist.Add(s)
		if cfg.Echo {
			fmt.Println(sensor.FormatSample(stored))
		}
		if got.Add(1) == int64(samples) {
			cancel()
		}
	}
	runErr := l.Run(ctx)
	if hist.Len() == 0 {
		if runErr != nil {
			return fmt.Errorf("collect samples: %w", runErr)
		}
		return errors.New("no samples received")
	}
	if n := got.Load(); n < int64(samples) {
		sensor.Warnf("snapshot: stream ended after %d of %d samples", n, samples)
	}

	w, h := chartSize(nil)
	if snapshotWidthOverride > 0 {
		w = snapshotWidthOverride
	}
	img, err := plot.Render(hist.Snapshot(), plot.Options{Width: w, Height: h})
	if err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	if err := plot.EncodePNG(img, f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", outPath, err)
	}
	sensor.Infof("snapshot: wrote %s (%d samples)", outPath, hist.Len())
	return nil
}
