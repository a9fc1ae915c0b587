package plot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/AccelMonitor/src/buffer"
)

const (
	DefaultTitle  = "ESP32 ADXL345 Real-Time Linear Acceleration"
	XAxisName     = "Time (samples)"
	YAxisName     = "Acceleration (m/s²)"
	WaitingHint   = "Waiting for data from the sensor..."
	defaultWidth  = 1100
	defaultHeight = 360
)

// ErrEmptySeries is returned by Render when there is nothing to draw.
var ErrEmptySeries = errors.New("plot: empty series")

// ErrRange is returned by Render when the values have no drawable Y range.
var ErrRange = errors.New("plot: values out of drawable range")

// Axis colours follow the usual X/Y/Z = blue/orange/green convention.
var (
	ColorX    = drawing.ColorFromHex("1f77b4")
	ColorY    = drawing.ColorFromHex("ff7f0e")
	ColorZ    = drawing.ColorFromHex("2ca02c")
	gridColor = drawing.ColorFromHex("d0d0d0")
)

// Options controls the rendered image.
type Options struct {
	Width  int
	Height int
	Title  string
	// Hint, when set, is drawn in the bottom-left corner.
	Hint string
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

func lineStyle(c drawing.Color) chart.Style {
	return chart.Style{StrokeColor: c, StrokeWidth: 2}
}

func formatIndex(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return ""
}

// Render draws the X, Y and Z lines of s. The X axis scrolls with the buffered
// window and the Y axis fits the data (see XRange and YRange).
func Render(s buffer.Series, opts Options) (image.Image, error) {
	xmin, xmax, ok := XRange(s)
	if !ok {
		return nil, ErrEmptySeries
	}
	ymin, ymax, ok := YRange(s)
	if !ok {
		return nil, ErrRange
	}
	xs, xv, yv, zv := s.Index, s.X, s.Y, s.Z
	if s.Len() == 1 {
		// go-chart needs two points per series
		xs = []float64{xs[0], xs[0] + 1}
		xv = []float64{xv[0], xv[0]}
		yv = []float64{yv[0], yv[0]}
		zv = []float64{zv[0], zv[0]}
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	w, h := opts.size()
	padBottom := 20
	if opts.Hint != "" {
		padBottom += 3 + hintLineHt*len(wrapHint(opts.Hint, basicfont.Face7x13, hintWidth(w)))
	}
	grid := chart.Style{StrokeColor: gridColor, StrokeWidth: 1}
	ch := chart.Chart{
		Title:      title,
		Width:      w,
		Height:     h,
		Background: chart.Style{Padding: chart.Box{Top: 30, Left: 16, Right: 16, Bottom: padBottom}},
		XAxis: chart.XAxis{
			Name:           XAxisName,
			Range:          &chart.ContinuousRange{Min: xmin, Max: xmax},
			ValueFormatter: formatIndex,
			GridMajorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           YAxisName,
			Range:          &chart.ContinuousRange{Min: ymin, Max: ymax},
			Ticks:          NiceTicks(ymin, ymax, 6),
			GridMajorStyle: grid,
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "X-axis", XValues: xs, YValues: xv, Style: lineStyle(ColorX)},
			chart.ContinuousSeries{Name: "Y-axis", XValues: xs, YValues: yv, Style: lineStyle(ColorY)},
			chart.ContinuousSeries{Name: "Z-axis", XValues: xs, YValues: zv, Style: lineStyle(ColorZ)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if opts.Hint != "" {
		return DrawHint(img, opts.Hint), nil
	}
	return img, nil
}

// RenderOrPlaceholder is Render for live views: an empty series or a render
// failure yields a blank placeholder carrying a short explanation.
func RenderOrPlaceholder(s buffer.Series, opts Options) (image.Image, error) {
	img, err := Render(s, opts)
	if err == nil {
		return img, nil
	}
	w, h := opts.size()
	if errors.Is(err, ErrEmptySeries) {
		return DrawHint(Blank(w, h), WaitingHint), nil
	}
	return DrawHint(Blank(w, h), "Chart unavailable: "+err.Error()), err
}

// Blank returns a dark w×h image.
func Blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 18, G: 18, B: 18, A: 255}), image.Point{}, draw.Src)
	return img
}

const (
	hintLeft   = 8
	hintPad    = 6
	hintLineHt = 15
)

// hintWidth is the text width available for a hint on a w pixel wide image.
func hintWidth(w int) int { return w - 2*(hintLeft+hintPad) }

// wrapHint breaks text at spaces so that each line fits in maxW pixels. A single
// word wider than maxW gets a line of its own.
func wrapHint(text string, face font.Face, maxW int) []string {
	words := strings.Fields(text)
	if maxW <= 0 {
		return []string{strings.Join(words, " ")}
	}
	var lines []string
	cur := ""
	for _, w := range words {
		cand := w
		if cur != "" {
			cand = cur + " " + w
		}
		if cur != "" && font.MeasureString(face, cand).Ceil() > maxW {
			lines = append(lines, cur)
			cur = w
			continue
		}
		cur = cand
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

// DrawHint writes text on a dark box in the bottom-left corner of img, wrapped
// to the image width.
func DrawHint(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	face := basicfont.Face7x13
	lines := wrapHint(text, face, hintWidth(b.Dx()))
	widest := 0
	for _, line := range lines {
		if lw := font.MeasureString(face, line).Ceil(); lw > widest {
			widest = lw
		}
	}
	x := b.Min.X + hintLeft
	bottom := b.Max.Y - 6
	top := bottom - (len(lines)-1)*hintLineHt
	bg := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 200})
	rect := image.Rect(x-hintPad, top-face.Metrics().Ascent.Ceil()-hintPad, x+widest+hintPad, bottom+hintPad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)

	textCol := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	shadowCol := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 180})
	for i, line := range lines {
		y := top + i*hintLineHt
		shadow := &font.Drawer{Dst: rgba, Src: shadowCol, Face: face, Dot: fixed.P(x+1, y+1)}
		shadow.DrawString(line)
		dr := &font.Drawer{Dst: rgba, Src: textCol, Face: face, Dot: fixed.P(x, y)}
		dr.DrawString(line)
	}
	return rgba
}

// EncodePNG writes img as PNG.
func EncodePNG(img image.Image, w io.Writer) error {
	if img == nil {
		return errors.New("plot: nil image")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
