package uihelpers

import (
	"strings"
	"testing"

	"github.com/iafilius/AccelMonitor/src/sensor"
)

func TestComputeChartDimensions(t *testing.T) {
	cases := []struct {
		inW, inH     int
		wantW, wantH int
	}{
		{100, 0, 480, 240},
		{479, 300, 480, 300},
		{1000, 0, 1000, 400},
		{1600, 2000, 1600, 900},
		{800, 100, 800, 240},
	}
	for _, c := range cases {
		w, h := ComputeChartDimensions(c.inW, c.inH)
		if w != c.wantW || h != c.wantH {
			t.Fatalf("input %dx%d => %dx%d want %dx%d", c.inW, c.inH, w, h, c.wantW, c.wantH)
		}
	}
}

func TestConnStateString(t *testing.T) {
	if ConnConnected.String() != "Connected" || ConnFailed.String() != "Failed" || ConnState(42).String() != "Unknown" {
		t.Fatalf("unexpected ConnState names")
	}
}

func TestStatusLine(t *testing.T) {
	got := StatusLine(ConnConnecting, "ws://h:81", 0, 0, nil, false)
	if got != "Connecting: ws://h:81 | samples: 0" {
		t.Fatalf("StatusLine = %q", got)
	}
	s := sensor.Sample{X: 1, Y: 2, Z: 9.81}
	got = StatusLine(ConnConnected, "ws://h:81", 12, 3, &s, true)
	for _, want := range []string{"Connected: ws://h:81", "samples: 12", "rejected: 3", "Z:   9.81", "PAUSED"} {
		if !strings.Contains(got, want) {
			t.Fatalf("StatusLine %q missing %q", got, want)
		}
	}
}

func TestShouldRedraw(t *testing.T) {
	if ShouldRedraw(5, 5, 800, 800, false) {
		t.Fatalf("nothing changed, should not redraw")
	}
	if !ShouldRedraw(5, 6, 800, 800, false) {
		t.Fatalf("new sample should redraw")
	}
	if !ShouldRedraw(5, 5, 800, 900, false) {
		t.Fatalf("resize should redraw")
	}
	if ShouldRedraw(5, 6, 800, 900, true) {
		t.Fatalf("paused view should not redraw")
	}
	if !ShouldRedraw(5, 8, 800, 800, false) {
		t.Fatalf("a cleared and refilled history moves the generation and should redraw")
	}
}
