package sensor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func runAsync(ctx context.Context, l *Listener) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()
	return errc
}

func waitRun(t *testing.T, errc <-chan error) error {
	t.Helper()
	select {
	case err := <-errc:
		return err
	case <-time.After(5 * time.Second):
		t.Fatalf("listener did not stop in time")
		return nil
	}
}

func TestListener_ReceivesUntilServerCloses(t *testing.T) {
	srv := httptest.NewServer(&Simulator{Interval: 2 * time.Millisecond, Limit: 10, Seed: 1})
	defer srv.Close()

	l := NewListener(wsURL(srv))
	var (
		mu       sync.Mutex
		samples  []Sample
		opened   atomic.Bool
		gotCode  int
		gotText  string
		closeHit atomic.Int32
	)
	l.OnOpen = func() { opened.Store(true) }
	l.OnSample = func(s Sample) {
		mu.Lock()
		samples = append(samples, s)
		mu.Unlock()
	}
	l.OnClose = func(code int, text string) {
		gotCode, gotText = code, text
		closeHit.Add(1)
	}

	if err := waitRun(t, runAsync(context.Background(), l)); err != nil {
		t.Fatalf("Run returned %v, want nil after normal closure", err)
	}
	if !opened.Load() {
		t.Fatalf("OnOpen was not called")
	}
	mu.Lock()
	got := append([]Sample(nil), samples...)
	mu.Unlock()
	if len(got) != 10 || l.Received() != 10 {
		t.Fatalf("got %d samples (Received=%d), want 10", len(got), l.Received())
	}
	first := got[0]
	if first.Z < Gravity-1 || first.Z > Gravity+1 {
		t.Fatalf("simulated Z should sit near gravity, got %v", first.Z)
	}
	if closeHit.Load() != 1 || gotCode != websocket.CloseNormalClosure || gotText != "limit reached" {
		t.Fatalf("OnClose calls=%d code=%d text=%q", closeHit.Load(), gotCode, gotText)
	}
}

func TestListener_StringValuedStream(t *testing.T) {
	srv := httptest.NewServer(&Simulator{Interval: time.Millisecond, Limit: 5, StringValues: true})
	defer srv.Close()
	l := NewListener(wsURL(srv))
	if err := waitRun(t, runAsync(context.Background(), l)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.Received() != 5 || l.Rejected() != 0 {
		t.Fatalf("received=%d rejected=%d, want 5/0", l.Received(), l.Rejected())
	}
}

func TestListener_SkipsUndecodableMessages(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		for _, m := range []string{`not json`, `{"x":1,"y":2}`, `{"x":1,"y":2,"z":3}`} {
			if err := c.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		_ = c.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	l := NewListener(wsURL(srv))
	var errs []error
	var got []Sample
	l.OnError = func(err error) { errs = append(errs, err) }
	l.OnSample = func(s Sample) { got = append(got, s) }

	if err := waitRun(t, runAsync(context.Background(), l)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got) != 1 || got[0] != (Sample{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("samples = %+v, want one {1 2 3}", got)
	}
	if len(errs) != 2 || !errors.Is(errs[0], ErrDecode) || !errors.Is(errs[1], ErrMissingKey) {
		t.Fatalf("errors = %v", errs)
	}
	if l.Rejected() != 2 {
		t.Fatalf("Rejected = %d, want 2", l.Rejected())
	}
}

func TestListener_CloseStopsRun(t *testing.T) {
	srv := httptest.NewServer(&Simulator{Interval: time.Millisecond})
	defer srv.Close()

	l := NewListener(wsURL(srv))
	first := make(chan struct{})
	var once sync.Once
	l.OnSample = func(Sample) { once.Do(func() { close(first) }) }
	var code atomic.Int32
	l.OnClose = func(c int, _ string) { code.Store(int32(c)) }

	errc := runAsync(context.Background(), l)
	select {
	case <-first:
	case <-time.After(5 * time.Second):
		t.Fatalf("no sample received")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := waitRun(t, errc); err != nil {
		t.Fatalf("Run after Close returned %v, want nil", err)
	}
	if code.Load() != websocket.CloseNormalClosure {
		t.Fatalf("close code = %d, want %d", code.Load(), websocket.CloseNormalClosure)
	}
}

func TestListener_ContextCancelStopsRun(t *testing.T) {
	srv := httptest.NewServer(&Simulator{Interval: time.Millisecond})
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l := NewListener(wsURL(srv))
	l.OnOpen = func() { cancel() }
	if err := waitRun(t, runAsync(ctx, l)); err != nil {
		t.Fatalf("Run after cancel returned %v, want nil", err)
	}
}

func TestListener_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	l := NewListener(url)
	var hookErr error
	l.OnError = func(err error) { hookErr = err }
	err := l.Run(context.Background())
	if err == nil {
		t.Fatalf("expected dial error")
	}
	if hookErr == nil || !strings.Contains(err.Error(), "dial") {
		t.Fatalf("hook err=%v run err=%v", hookErr, err)
	}
}

func TestListener_AbruptDisconnectIsError(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"x":0,"y":0,"z":9.8}`))
		c.UnderlyingConn().Close()
	}))
	defer srv.Close()

	l := NewListener(wsURL(srv))
	var code int
	l.OnClose = func(c int, _ string) { code = c }
	err := waitRun(t, runAsync(context.Background(), l))
	if err == nil {
		t.Fatalf("expected read error after abrupt disconnect")
	}
	if l.Received() != 1 {
		t.Fatalf("Received = %d, want 1", l.Received())
	}
	if code != websocket.CloseAbnormalClosure {
		t.Fatalf("close code = %d, want %d", code, websocket.CloseAbnormalClosure)
	}
}
