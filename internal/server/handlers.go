package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"pointbid/internal/logger"
	"pointbid/internal/model"
	"pointbid/internal/work"
)

var errDuplicateConn = errors.New("server: connection key already in use")

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// StatsSource answers player statistics queries.
type StatsSource interface {
	PlayerStats(ctx context.Context, name string) (model.PlayerStat, error)
}

type Handler struct {
	loop     *work.Loop
	registry *Registry
	stats    StatsSource
	cfg      TransportConfig
	log      logger.Logger
}

// NewHandler builds the HTTP side of the server. stats may be nil when no
// history is kept.
func NewHandler(loop *work.Loop, registry *Registry, stats StatsSource, cfg TransportConfig, log logger.Logger) *Handler {
	return &Handler{loop: loop, registry: registry, stats: stats, cfg: cfg, log: log}
}

// HandleWS upgrades the request and serves the connection until it ends.
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", logger.F("error", err.Error()))
		return
	}

	key := connKey(ws.RemoteAddr())
	t := newWSTransport(ws, h.cfg, h.log.With(logger.F("conn", key)))
	defer t.Close()

	c, err := h.accept(r.Context(), key, t)
	if err != nil {
		h.log.Warn("accept failed", logger.F("conn", key), logger.F("error", err.Error()))
		return
	}
	t.readPump(loopListener{loop: h.loop, conn: c, log: t.log})
}

// accept registers and starts the connection for t on the loop. When ctx
// ends first the queued registration still runs, so a cleanup job removes
// whatever it registered for t.
func (h *Handler) accept(ctx context.Context, key string, t Transport) (*Conn, error) {
	v, err := h.loop.PostAndWait(ctx, func() (any, error) {
		c := h.registry.Add(key, t)
		if c.transport != t {
			return nil, errDuplicateConn
		}
		c.Start()
		return c, nil
	})
	if err == nil {
		return v.(*Conn), nil
	}
	if !errors.Is(err, work.ErrLoopStopped) {
		_ = h.loop.Post(func() {
			if c := h.registry.Find(key); c != nil && c.transport == t {
				c.closeTransport()
				h.registry.Remove(c)
			}
		})
	}
	return nil, err
}

// HandleSession reports the current session.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	v, err := h.loop.PostAndWait(r.Context(), func() (any, error) {
		return h.registry.manager.Summary(), nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, v)
}

// HandleStats reports the recorded games of one player.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		http.Error(w, "game history is disabled", http.StatusNotFound)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name", http.StatusBadRequest)
		return
	}
	st, err := h.stats.PlayerStats(r.Context(), name)
	if err != nil {
		h.log.Warn("player stats", logger.F("name", name), logger.F("error", err.Error()))
		http.Error(w, "stats unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	v, err := h.loop.PostAndWait(r.Context(), func() (any, error) {
		return h.registry.Len(), nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{"status": "ok", "connections": v})
}

// CloseAll tears down every connection on the loop.
func (h *Handler) CloseAll(ctx context.Context) error {
	_, err := h.loop.PostAndWait(ctx, func() (any, error) {
		h.registry.CloseAll()
		return nil, nil
	})
	return err
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// loopListener moves transport callbacks onto the job loop.
type loopListener struct {
	loop *work.Loop
	conn *Conn
	log  logger.Logger
}

func (l loopListener) ReceiveMessage(raw []byte) {
	l.post(func() { l.conn.ReceiveMessage(raw) })
}

func (l loopListener) OnTransportClosed() {
	l.post(l.conn.OnTransportClosed)
}

func (l loopListener) OnTransportError(err error) {
	l.post(func() { l.conn.OnTransportError(err) })
}

func (l loopListener) post(job func()) {
	if err := l.loop.Post(job); err != nil {
		l.log.Debug("drop transport event", logger.F("error", err.Error()))
	}
}
