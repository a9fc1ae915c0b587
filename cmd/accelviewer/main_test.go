package main

import (
	"strings"
	"testing"

	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/test"

	"github.com/iafilius/AccelMonitor/src/buffer"
	"github.com/iafilius/AccelMonitor/src/config"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

func newTestState(t *testing.T) *uiState {
	t.Helper()
	url := "ws://127.0.0.1:1"
	return &uiState{
		app:         test.NewTempApp(t),
		cfg:         config.Default(),
		url:         url,
		history:     buffer.New(10),
		listener:    sensor.NewListener(url),
		chartCanvas: canvas.NewImageFromImage(nil),
	}
}

// TestHintsToggleKeepsPausedChart checks the hint toggle saves the preference
// but leaves a paused chart alone.
func TestHintsToggleKeepsPausedChart(t *testing.T) {
	state := newTestState(t)
	state.history.Append(0.1, 0.2, 9.81)
	state.paused.Store(true)

	state.setHints(true)
	if state.chartCanvas.Image != nil {
		t.Fatalf("paused chart was redrawn by the hints toggle")
	}
	if !state.app.Preferences().Bool("showHints") {
		t.Fatalf("showHints preference not saved")
	}

	state.paused.Store(false)
	state.setHints(false)
	if state.chartCanvas.Image == nil {
		t.Fatalf("running chart should redraw on hints toggle")
	}
	if state.app.Preferences().Bool("showHints") {
		t.Fatalf("showHints preference not cleared")
	}
}

func TestStatusTextReportsPause(t *testing.T) {
	state := newTestState(t)
	state.paused.Store(true)
	if got := state.statusText(); !containsAll(got, state.url, "PAUSED") {
		t.Fatalf("status %q missing url or pause marker", got)
	}
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}
