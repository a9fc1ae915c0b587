package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the address the ESP32 firmware serves its sample stream on.
const DefaultURL = "ws://192.168.200.13:81"

// Listener receives samples from one device connection. Run blocks in the read loop;
// callers typically start it in its own goroutine. There is no reconnection: when the
// connection ends Run returns and the listener is spent.
type Listener struct {
	URL    string
	Dialer *websocket.Dialer

	// Optional hooks. They run on the read goroutine and must not block for long.
	OnOpen   func()
	OnSample func(Sample)
	OnError  func(error)
	OnClose  func(code int, text string)

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool

	received atomic.Int64
	rejected atomic.Int64
}

// NewListener returns a listener for url using the default gorilla dialer.
func NewListener(url string) *Listener {
	return &Listener{URL: url, Dialer: websocket.DefaultDialer}
}

// Received is the number of samples decoded so far.
func (l *Listener) Received() int64 { return l.received.Load() }

// Rejected is the number of messages that failed to decode.
func (l *Listener) Rejected() int64 { return l.rejected.Load() }

// Run dials the device and reads messages until the connection ends, Close is
// called or ctx is cancelled. A clean shutdown returns nil; dial and read
// failures are returned after being logged and passed to OnError.
func (l *Listener) Run(ctx context.Context) error {
	dialer := l.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	start := time.Now()
	conn, _, err := dialer.DialContext(ctx, l.URL, nil)
	if err != nil {
		err = fmt.Errorf("dial %s: %w", l.URL, err)
		l.reportError(err)
		return err
	}
	TimeTrack(start, "dial "+l.URL)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		conn.Close()
		return nil
	}
	l.conn = conn
	l.mu.Unlock()

	Infof("### Connected to ESP32 WebSocket Server ###")
	if l.OnOpen != nil {
		l.OnOpen()
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.Close()
		case <-stop:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return l.finish(conn, err)
		}
		s, err := DecodeSample(msg)
		if err != nil {
			l.rejected.Add(1)
			Warnf("%v", err)
			if l.OnError != nil {
				l.OnError(err)
			}
			continue
		}
		l.received.Add(1)
		if l.OnSample != nil {
			l.OnSample(s)
		}
	}
}

// finish classifies the error that ended the read loop and fires the close hook.
func (l *Listener) finish(conn *websocket.Conn, err error) error {
	l.mu.Lock()
	local := l.closed
	l.closed = true
	l.mu.Unlock()
	conn.Close()

	code, text := websocket.CloseAbnormalClosure, ""
	var ce *websocket.CloseError
	switch {
	case errors.As(err, &ce):
		code, text = ce.Code, ce.Text
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			err = nil
		}
	case local:
		code = websocket.CloseNormalClosure
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("read: %w", err)
		l.reportError(err)
	}
	Infof("### WebSocket Connection Closed ###")
	Debugf("close code=%d text=%q received=%d rejected=%d", code, text, l.Received(), l.Rejected())
	if l.OnClose != nil {
		l.OnClose(code, text)
	}
	return err
}

func (l *Listener) reportError(err error) {
	Errorf("WebSocket Error: %v", err)
	if l.OnError != nil {
		l.OnError(err)
	}
}

// Close sends a normal-closure frame and closes the socket. It is safe to call
// more than once and from any goroutine; Run then returns nil.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.conn == nil {
		return nil
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := l.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		Debugf("write close frame: %v", err)
	}
	return l.conn.Close()
}
