// Sensor simulator: serves the same JSON sample stream as the ESP32 firmware so the
// viewer and reader can be tried without hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iafilius/AccelMonitor/src/sensor"
)

func main() {
	addr := flag.String("addr", ":81", "Listen address")
	path := flag.String("path", "/", "WebSocket path")
	interval := flag.Duration("interval", 50*time.Millisecond, "Time between samples")
	limit := flag.Int("limit", 0, "Close each stream after this many samples (0 = unlimited)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Noise seed")
	strs := flag.Bool("strings", false, "Send axis values as JSON strings")
	logLevel := flag.String("log-level", "info", "Log level (debug|info|warn|error)")
	flag.Parse()
	sensor.SetLogLevel(*logLevel)
	sensor.SetLogTag("sensorsim")

	mux := http.NewServeMux()
	mux.Handle(*path, &sensor.Simulator{Interval: *interval, Limit: *limit, Seed: *seed, StringValues: *strs})
	srv := &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sensor.Warnf("shutdown: %v", err)
		}
	}()

	sensor.Infof("sensorsim: serving ws://%s%s every %s", *addr, *path, *interval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		sensor.Errorf("sensorsim: %v", err)
		os.Exit(1)
	}
}
