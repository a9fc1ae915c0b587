package sensor

import (
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
)

// Gravity is the resting Z reading of a level sensor, in m/s².
const Gravity = 9.81

// Signal produces a plausible accelerometer trace: gravity on Z, slow sway on X and Y
// and a little noise on every axis.
type Signal struct {
	rng     *rand.Rand
	elapsed float64
	Noise   float64
}

// NewSignal returns a deterministic signal for the given seed.
func NewSignal(seed int64) *Signal {
	return &Signal{rng: rand.New(rand.NewSource(seed)), Noise: 0.05}
}

// Next advances the signal by step and returns the reading at the new time.
func (g *Signal) Next(step time.Duration) Sample {
	g.elapsed += step.Seconds()
	t := g.elapsed
	n := func() float64 { return g.rng.NormFloat64() * g.Noise }
	return Sample{
		X: 0.8*math.Sin(2*math.Pi*0.5*t) + n(),
		Y: 0.5*math.Cos(2*math.Pi*0.3*t) + n(),
		Z: Gravity + 0.2*math.Sin(2*math.Pi*1.1*t) + n(),
	}
}

// Simulator is an http.Handler that behaves like the device firmware: every
// Interval it sends one JSON sample to the connected client.
type Simulator struct {
	Interval time.Duration
	// Limit stops the stream with a normal closure after this many samples; 0 streams forever.
	Limit int
	Seed  int64
	// StringValues sends axis values as JSON strings, as some firmware builds do.
	StringValues bool
	Upgrader     websocket.Upgrader
}

func (s *Simulator) interval() time.Duration {
	if s.Interval <= 0 {
		return 50 * time.Millisecond
	}
	return s.Interval
}

func (s *Simulator) encode(v Sample) ([]byte, error) {
	if !s.StringValues {
		return json.Marshal(v)
	}
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', 4, 64) }
	return json.Marshal(map[string]string{"x": f(v.X), "y": f(v.Y), "z": f(v.Z)})
}

func (s *Simulator) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		Warnf("simulator: upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	Infof("simulator: client %s connected", r.RemoteAddr)

	// Drain incoming frames so close and ping control messages are handled.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	step := s.interval()
	sig := NewSignal(s.Seed)
	tick := time.NewTicker(step)
	defer tick.Stop()
	sent := 0
	for s.Limit <= 0 || sent < s.Limit {
		select {
		case <-done:
			Infof("simulator: client %s went away after %d samples", r.RemoteAddr, sent)
			return
		case <-tick.C:
		}
		b, err := s.encode(sig.Next(step))
		if err != nil {
			Errorf("simulator: encode: %v", err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			Debugf("simulator: write: %v", err)
			return
		}
		sent++
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "limit reached")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		return
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
	Infof("simulator: sent %d samples to %s", sent, r.RemoteAddr)
}
