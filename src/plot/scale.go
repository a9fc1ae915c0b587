// Package plot turns buffered accelerometer samples into chart images.
package plot

import (
	"fmt"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/iafilius/AccelMonitor/src/buffer"
)

const (
	// MinYSpan keeps a flat signal from collapsing the Y axis.
	MinYSpan = 0.1
	// YMargin is the share of the value span added above and below the data.
	YMargin = 0.2
)

// XRange returns the visible sample window: from the oldest index (never below 0)
// to one past the newest. ok is false for an empty series.
func XRange(s buffer.Series) (min, max float64, ok bool) {
	if s.Len() == 0 {
		return 0, 0, false
	}
	return math.Max(0, s.Index[0]), s.Index[s.Len()-1] + 1, true
}

// YRange spans every X, Y and Z value with a 20% margin on both sides. ok is false
// for an empty series, and when the padded range does not fit in a float64.
func YRange(s buffer.Series) (min, max float64, ok bool) {
	if s.Len() == 0 {
		return 0, 0, false
	}
	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, vs := range [][]float64{s.X, s.Y, s.Z} {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			vmin = math.Min(vmin, v)
			vmax = math.Max(vmax, v)
		}
	}
	if math.IsInf(vmin, 1) {
		return 0, 0, false
	}
	span := vmax - vmin
	if span < MinYSpan {
		span = MinYSpan
	}
	margin := span * YMargin
	min, max = vmin-margin, vmax+margin
	if math.IsInf(max-min, 0) {
		return 0, 0, false
	}
	return min, max, true
}

// NiceTicks picks up to about n ticks on a 1/2/2.5/5×10^k grid, keeping only those
// inside [min, max]. It returns nil when fewer than two fit, letting the chart choose.
func NiceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) || max <= min {
		return nil
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range []float64{1, 2, 2.5, 5, 10} {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		if score := math.Abs(count - float64(n)); score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Ceil(min/bestStep) * bestStep
	var ticks []chart.Tick
	for i := 0; ; i++ {
		v := start + float64(i)*bestStep
		if v > max+bestStep*1e-9 {
			break
		}
		// avoid -0 labels from float drift
		if math.Abs(v) < bestStep*1e-9 {
			v = 0
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: FormatTick(v)})
		if len(ticks) > n+2 {
			break
		}
	}
	if len(ticks) < 2 {
		return nil
	}
	return ticks
}

// FormatTick gives a compact label for an acceleration value.
func FormatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	case av >= 0.1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.3f", v)
	}
}
