package uihelpers

import (
	"fmt"
	"strings"

	"github.com/iafilius/AccelMonitor/src/sensor"
)

// ComputeChartDimensions applies the width/height clamp rules used for the live chart.
// rawH <= 0 derives the height from the width.
func ComputeChartDimensions(rawW, rawH int) (int, int) {
	w := rawW
	if w < 480 {
		w = 480
	}
	h := rawH
	if h <= 0 {
		h = int(float32(w) * 0.4)
	}
	if h < 240 {
		h = 240
	}
	if h > 900 {
		h = 900
	}
	return w, h
}

// ConnState is the viewer's view of the sensor connection.
type ConnState int

const (
	ConnConnecting ConnState = iota
	ConnConnected
	ConnClosed
	ConnFailed
)

func (c ConnState) String() string {
	switch c {
	case ConnConnecting:
		return "Connecting"
	case ConnConnected:
		return "Connected"
	case ConnClosed:
		return "Closed"
	case ConnFailed:
		return "Failed"
	}
	return "Unknown"
}

// StatusLine builds the text for the status bar under the chart.
func StatusLine(state ConnState, url string, received, rejected int64, latest *sensor.Sample, paused bool) string {
	parts := []string{fmt.Sprintf("%s: %s", state, url), fmt.Sprintf("samples: %d", received)}
	if rejected > 0 {
		parts = append(parts, fmt.Sprintf("rejected: %d", rejected))
	}
	if latest != nil {
		parts = append(parts, sensor.FormatSample(*latest))
	}
	if paused {
		parts = append(parts, "PAUSED")
	}
	return strings.Join(parts, " | ")
}

// ShouldRedraw decides whether the redraw tick has anything new to show. gen is the
// history generation, which moves on every append and clear.
func ShouldRedraw(lastGen, gen uint64, lastW, w int, paused bool) bool {
	if paused {
		return false
	}
	return gen != lastGen || w != lastW
}
