// Console client: prints every sample the sensor sends and a short summary of the
// buffered window on exit. Useful on machines without a display.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iafilius/AccelMonitor/src/config"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

func main() {
	cf := config.RegisterFlags(flag.CommandLine)
	limit := flag.Int("n", 0, "Stop after this many samples (0 = until interrupted or disconnected)")
	flag.Parse()
	cfg, err := cf.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	sensor.SetLogLevel(cfg.LogLevel)
	sensor.SetLogTag("accelreader")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := RunReader(ctx, cfg, *limit, os.Stdout); err != nil {
		os.Exit(1)
	}
}
