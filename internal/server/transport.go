package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"pointbid/internal/logger"
)

var (
	ErrTransportClosed = errors.New("server: transport closed")
	ErrSendQueueFull   = errors.New("server: send queue full")
)

// Transport is the duplex channel under a connection.
type Transport interface {
	Send(data []byte) error
	Close() error
}

// Listener receives what a transport reads. Calls come from the transport's
// read goroutine.
type Listener interface {
	ReceiveMessage(raw []byte)
	OnTransportClosed()
	OnTransportError(err error)
}

type TransportConfig struct {
	WriteTimeout  time.Duration
	PingInterval  time.Duration
	ReadLimit     int64
	SendQueueSize int
}

// wsTransport runs a websocket connection with one writer goroutine and
// one reader.
type wsTransport struct {
	conn *websocket.Conn
	cfg  TransportConfig
	log  logger.Logger

	mu       sync.Mutex
	closed   bool
	writeErr error
	send     chan []byte
	done     chan struct{}
}

func newWSTransport(conn *websocket.Conn, cfg TransportConfig, log logger.Logger) *wsTransport {
	t := &wsTransport{
		conn: conn,
		cfg:  cfg,
		log:  log,
		send: make(chan []byte, max(cfg.SendQueueSize, 1)),
		done: make(chan struct{}),
	}
	go t.writePump()
	return t
}

// Send queues data without blocking. A full queue fails the connection.
func (t *wsTransport) Send(data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}
	select {
	case t.send <- data:
		return nil
	default:
		t.failLocked(ErrSendQueueFull)
		return ErrSendQueueFull
	}
}

// Close flushes queued frames, sends a close frame and closes the socket.
// Closing twice does nothing.
func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	return nil
}

func (t *wsTransport) fail(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failLocked(err)
}

// failLocked records err and closes the socket so the read pump reports it.
func (t *wsTransport) failLocked(err error) {
	if t.writeErr == nil {
		t.writeErr = err
	}
	if !t.closed {
		t.closed = true
		close(t.done)
	}
	_ = t.conn.Close()
}

func (t *wsTransport) failure() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeErr
}

func (t *wsTransport) writePump() {
	ticker := time.NewTicker(t.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		t.conn.Close()
	}()

	for {
		select {
		case msg := <-t.send:
			if err := t.write(websocket.TextMessage, msg); err != nil {
				t.fail(err)
				return
			}
		case <-ticker.C:
			if err := t.write(websocket.PingMessage, nil); err != nil {
				t.fail(err)
				return
			}
		case <-t.done:
			t.flush()
			_ = t.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(t.cfg.WriteTimeout))
			return
		}
	}
}

func (t *wsTransport) flush() {
	if t.failure() != nil {
		return
	}
	for {
		select {
		case msg := <-t.send:
			if err := t.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (t *wsTransport) write(messageType int, data []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(messageType, data)
}

// readPump delivers inbound text frames to l until the socket ends. It
// blocks.
func (t *wsTransport) readPump(l Listener) {
	t.conn.SetReadLimit(t.cfg.ReadLimit)
	wait := t.cfg.PingInterval * 2
	_ = t.conn.SetReadDeadline(time.Now().Add(wait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			t.reportEnd(l, err)
			return
		}
		_ = t.conn.SetReadDeadline(time.Now().Add(wait))
		if messageType != websocket.TextMessage {
			continue
		}
		l.ReceiveMessage(data)
	}
}

func (t *wsTransport) reportEnd(l Listener, err error) {
	if werr := t.failure(); werr != nil {
		l.OnTransportError(werr)
		return
	}

	t.mu.Lock()
	closedLocally := t.closed
	t.mu.Unlock()

	if closedLocally || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		l.OnTransportClosed()
		return
	}
	t.log.Debug("read failed", logger.F("error", err.Error()))
	l.OnTransportError(err)
}

// connKey derives the registry key for a remote address.
func connKey(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host + "_" + port
}
