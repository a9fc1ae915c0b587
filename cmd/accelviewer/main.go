// Accel Monitor live viewer.
//
// Connects to the ESP32 ADXL345 WebSocket stream, keeps the last samples in a
// bounded history and redraws a scrolling X/Y/Z chart on a timer.
//
// Two modes:
//  1. Window mode (default): Fyne window with the live chart, status bar and PNG export.
//  2. Snapshot mode (-snapshot out.png): collect samples headlessly, write one chart and exit.
//
// Design notes:
//   - One goroutine reads the socket and appends to the history; the redraw ticker only
//     takes snapshots, renders off the UI thread and hands the image over with fyne.Do.
//   - No reconnection: when the device goes away the status bar says so and the last
//     chart stays on screen.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/iafilius/AccelMonitor/cmd/accelviewer/uihelpers"
	"github.com/iafilius/AccelMonitor/src/buffer"
	"github.com/iafilius/AccelMonitor/src/config"
	"github.com/iafilius/AccelMonitor/src/plot"
	"github.com/iafilius/AccelMonitor/src/sensor"
)

const hintText = "Hint: Z shows gravity (~9.81 m/s²) when the board lies flat. Y-range follows the data with a 20% margin."

type uiState struct {
	app    fyne.App
	window fyne.Window
	cfg    *config.Config
	url    string

	history  *buffer.History
	listener *sensor.Listener

	// toggles, read by the redraw goroutine
	paused    atomic.Bool
	showHints atomic.Bool

	mu      sync.Mutex
	conn    uihelpers.ConnState
	connErr error

	// widgets
	chartCanvas *canvas.Image
	statusLabel *widget.Label
}

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

func main() {
	cf := config.RegisterFlags(flag.CommandLine)
	snapshotPath := flag.String("snapshot", "", "Write one chart PNG to this path and exit (no window)")
	snapshotSamples := flag.Int("samples", 0, "Samples to collect in snapshot mode (0 = history length)")
	snapshotTimeout := flag.Duration("timeout", 30*time.Second, "Give up collecting after this long in snapshot mode")
	flag.Parse()

	cfg, err := cf.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	sensor.SetLogLevel(cfg.LogLevel)
	sensor.SetLogTag("accelviewer")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *snapshotPath != "" {
		if err := RunSnapshotMode(ctx, cfg, *snapshotPath, *snapshotSamples, *snapshotTimeout); err != nil {
			sensor.Errorf("snapshot: %v", err)
			os.Exit(1)
		}
		return
	}
	runWindow(ctx, cfg)
}

func (s *uiState) setConn(c uihelpers.ConnState, err error) {
	s.mu.Lock()
	s.conn, s.connErr = c, err
	s.mu.Unlock()
}

func (s *uiState) statusText() string {
	s.mu.Lock()
	c, cerr := s.conn, s.connErr
	s.mu.Unlock()
	var latest *sensor.Sample
	if v, ok := s.history.Latest(); ok {
		latest = &v
	}
	line := uihelpers.StatusLine(c, s.url, s.listener.Received(), s.listener.Rejected(), latest, s.paused.Load())
	if cerr != nil {
		line += " | " + cerr.Error()
	}
	return line
}

func runWindow(ctx context.Context, cfg *config.Config) {
	url := cfg.WebSocketURL()
	fmt.Printf("Attempting to connect to %s\n", url)
	fmt.Println("Make sure the ESP32 is running and the IP is correct.")

	a := app.NewWithID("com.iafilius.accelmonitor")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow("Accel Monitor")
	w.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))

	state := &uiState{
		app:      a,
		window:   w,
		cfg:      cfg,
		url:      url,
		history:  buffer.New(cfg.HistoryLength),
		listener: sensor.NewListener(url),
	}
	state.showHints.Store(a.Preferences().BoolWithFallback("showHints", false))

	state.listener.OnOpen = func() { state.setConn(uihelpers.ConnConnected, nil) }
	state.listener.OnSample = func(s sensor.Sample) {
		stored := state.history.Add(s)
		if cfg.Echo {
			fmt.Println(sensor.FormatSample(stored))
		}
	}
	state.listener.OnClose = func(code int, text string) {
		state.setConn(uihelpers.ConnClosed, nil)
		sensor.Debugf("viewer: connection closed code=%d text=%q", code, text)
	}

	// top bar
	hintsChk := widget.NewCheck("Hints", state.setHints)
	hintsChk.Checked = state.showHints.Load()
	pauseChk := widget.NewCheck("Pause", func(b bool) {
		state.paused.Store(b)
		if !b {
			redrawChart(state)
		}
	})
	clearBtn := widget.NewButton("Clear", func() {
		state.history.Reset()
		redrawChart(state)
	})
	top := container.NewHBox(
		widget.NewButton("Export PNG…", func() { exportChartPNG(state) }),
		clearBtn, pauseChk, hintsChk,
	)

	cw, chh := chartSize(state)
	state.chartCanvas = canvas.NewImageFromImage(plot.DrawHint(plot.Blank(cw, chh), plot.WaitingHint))
	state.chartCanvas.FillMode = canvas.ImageFillContain
	state.chartCanvas.SetMinSize(fyne.NewSize(480, 240))
	state.statusLabel = widget.NewLabel(state.statusText())
	state.statusLabel.Truncation = fyne.TextTruncateEllipsis

	w.SetContent(container.NewBorder(top, state.statusLabel, nil, nil, state.chartCanvas))
	buildMenus(state)

	runCtx, cancel := context.WithCancel(ctx)
	closed := make(chan struct{})
	w.SetOnClosed(func() {
		savePrefs(state)
		cancel()
		state.listener.Close()
		close(closed)
	})

	go func() {
		if err := state.listener.Run(runCtx); err != nil {
			state.setConn(uihelpers.ConnFailed, err)
		}
	}()
	go redrawLoop(runCtx, state)
	go func() {
		select {
		case <-ctx.Done():
			// interrupted from the terminal
			fyne.Do(func() { w.Close() })
		case <-closed:
		}
	}()

	w.ShowAndRun()
}

// setHints toggles the chart hint. A paused chart stays frozen; the hint shows up
// with the first redraw after resuming.
func (s *uiState) setHints(b bool) {
	s.showHints.Store(b)
	savePrefs(s)
	if !s.paused.Load() {
		redrawChart(s)
	}
}

// redrawLoop re-renders the chart on every tick that brought new samples or a new width.
func redrawLoop(ctx context.Context, state *uiState) {
	t := time.NewTicker(state.cfg.RefreshInterval())
	defer t.Stop()
	var lastGen uint64
	lastW := -1
	lastStatus := ""
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		gen := state.history.Generation()
		cw, chh := chartSize(state)
		var img image.Image
		if uihelpers.ShouldRedraw(lastGen, gen, lastW, cw, state.paused.Load()) {
			img = renderChart(state, cw, chh)
			lastGen, lastW = gen, cw
		}
		status := state.statusText()
		if img == nil && status == lastStatus {
			continue
		}
		lastStatus = status
		fyne.Do(func() { applyChart(state, img, status) })
	}
}

func applyChart(state *uiState, img image.Image, status string) {
	if img != nil && state.chartCanvas != nil {
		state.chartCanvas.Image = img
		state.chartCanvas.Refresh()
	}
	if state.statusLabel != nil && status != "" {
		state.statusLabel.SetText(status)
	}
}

// redrawChart renders immediately; call from the UI goroutine.
func redrawChart(state *uiState) {
	cw, chh := chartSize(state)
	applyChart(state, renderChart(state, cw, chh), state.statusText())
}

func renderChart(state *uiState, w, h int) image.Image {
	start := time.Now()
	defer sensor.TimeTrack(start, "render chart")
	opts := plot.Options{Width: w, Height: h}
	if state.showHints.Load() {
		opts.Hint = hintText
	}
	img, err := plot.RenderOrPlaceholder(state.history.Snapshot(), opts)
	if err != nil {
		sensor.Warnf("viewer: chart render error: %v; showing placeholder", err)
	}
	return img
}

// chartSize fits the chart to the window, leaving room for the top and status bars.
func chartSize(state *uiState) (int, int) {
	if state == nil || state.window == nil || state.window.Canvas() == nil {
		return 1100, 440
	}
	sz := state.window.Canvas().Size()
	if sz.Width <= 0 || sz.Height <= 0 {
		return 1100, 440
	}
	return uihelpers.ComputeChartDimensions(int(sz.Width)-12, int(sz.Height)-90)
}

// menus and shortcuts
func buildMenus(state *uiState) {
	if state == nil || state.window == nil {
		return
	}
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Export Chart…", func() { exportChartPNG(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu))

	canv := state.window.Canvas()
	if canv == nil {
		return
	}
	for _, mod := range []fyne.KeyModifier{fyne.KeyModifierSuper, fyne.KeyModifierControl} {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyE, Modifier: mod}, func(fyne.Shortcut) { exportChartPNG(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: mod}, func(fyne.Shortcut) { state.window.Close() })
	}
}

// export PNG
func exportChartPNG(state *uiState) {
	if state == nil || state.window == nil {
		return
	}
	if state.chartCanvas == nil || state.chartCanvas.Image == nil || state.history.Len() == 0 {
		dialog.ShowInformation("Export", "No chart to export yet.", state.window)
		return
	}
	img := state.chartCanvas.Image
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		if err := plot.EncodePNG(img, wc); err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		sensor.Infof("viewer: exported chart to %s", wc.URI().Path())
	}, state.window)
	fs.SetFileName(fmt.Sprintf("accel_%s.png", time.Now().Format("20060102_150405")))
	fs.Show()
}

// prefs
func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	state.app.Preferences().SetBool("showHints", state.showHints.Load())
}
