package main

import (
	"context"
	"fmt"
	"io"

	"github.com/iafilius/AccelMonitor/src/buffer"
	"github.com/iafilius/AccelMonitor/src/config"
	"github.com/iafilius/AccelMonitor/src/plot"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

// RunReader streams samples from the sensor to out until limit samples arrived
// (limit <= 0 means no limit), ctx is done or the device closes the connection.
// A summary of the buffered window is written in every case; the returned error
// is the connection error, if any.
func RunReader(ctx context.Context, cfg *config.Config, limit int, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	url := cfg.WebSocketURL()
	fmt.Fprintf(out, "Attempting to connect to %s\n", url)
	hist := buffer.New(cfg.HistoryLength)
	l := sensor.NewListener(url)
	count := 0
	l.OnSample = func(s sensor.Sample) {
		if limit > 0 && count >= limit {
			// in flight while the connection closes
			return
		}
		stored := hist.Add(s)
		if cfg.Echo {
			fmt.Fprintln(out, sensor.FormatSample(stored))
		}
		count++
		if limit > 0 && count >= limit {
			cancel()
		}
	}
	runErr := l.Run(ctx)

	fmt.Fprintf(out, "Total samples: %d\n", count)
	fmt.Fprintf(out, "Rejected messages: %d\n", l.Rejected())
	snap := hist.Snapshot()
	if xmin, xmax, ok := plot.XRange(snap); ok {
		if ymin, ymax, ok := plot.YRange(snap); ok {
			fmt.Fprintf(out, "Window: samples %.0f..%.0f, display range %.2f..%.2f m/s²\n", xmin, xmax-1, ymin, ymax)
		}
	}
	return runErr
}
