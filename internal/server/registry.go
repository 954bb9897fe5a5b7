package server

import (
	"errors"
	"slices"

	"pointbid/internal/logger"
	"pointbid/internal/session"
)

var errServerShutdown = errors.New("server: shutting down")

// Registry tracks live connections by key. It is only used from the job
// loop.
type Registry struct {
	conns   []*Conn
	index   map[string]*Conn
	manager *session.Manager
	log     logger.Logger
}

func NewRegistry(m *session.Manager, log logger.Logger) *Registry {
	return &Registry{
		index:   make(map[string]*Conn),
		manager: m,
		log:     log,
	}
}

// Add registers a connection for key, or returns the one already
// registered under it.
func (r *Registry) Add(key string, t Transport) *Conn {
	if c, ok := r.index[key]; ok {
		r.log.Warn("connection already registered", logger.F("conn", key))
		return c
	}
	c := newConn(key, t, r)
	r.conns = append(r.conns, c)
	r.index[key] = c
	return c
}

func (r *Registry) Find(key string) *Conn { return r.index[key] }

func (r *Registry) Len() int { return len(r.conns) }

// Conns returns a snapshot of the live connections.
func (r *Registry) Conns() []*Conn { return slices.Clone(r.conns) }

// Remove unregisters c and moves it to Dormant. Only the first call for a
// registered connection has any effect.
func (r *Registry) Remove(c *Conn) {
	if r.index[c.key] != c {
		return
	}
	delete(r.index, c.key)
	r.conns = slices.DeleteFunc(r.conns, func(o *Conn) bool { return o == c })
	c.removeFromRegistry()
	r.log.Info("remove client", logger.F("conn", c.key), logger.F("clients", len(r.conns)))
}

// CloseAll tears every connection down as if its transport had failed.
// Connections that ignore that are closed and removed directly.
func (r *Registry) CloseAll() {
	for _, c := range r.Conns() {
		c.OnTransportError(errServerShutdown)
	}
	for _, c := range r.Conns() {
		c.closeTransport()
		r.Remove(c)
	}
}
