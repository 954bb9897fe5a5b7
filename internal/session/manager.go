package session

import (
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"pointbid/internal/game"
	"pointbid/internal/logger"
	"pointbid/internal/model"
)

// Manager holds the current session. At most one exists at a time.
type Manager struct {
	current  *Session
	rng      *rand.Rand
	recorder Recorder
	records  errgroup.Group
	log      logger.Logger

	advance func(*game.Game) error
}

type Option func(*Manager)

// WithRand sets the source used for point-card shuffles and name fallbacks.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithRecorder stores every finished game in r.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

func WithLogger(log logger.Logger) Option {
	return func(m *Manager) { m.log = log }
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{log: logger.NewNop(), advance: (*game.Game).NextTurn}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m
}

// WaitRecords blocks until every pending history write is done and returns
// the first failure.
func (m *Manager) WaitRecords() error { return m.records.Wait() }

// Current returns the held session, or nil.
func (m *Manager) Current() *Session { return m.current }

// CreateOrJoinSession puts c into the current session, creating one if
// none exists. It returns nil when the current session no longer accepts
// members.
func (m *Manager) CreateOrJoinSession(c Client) *Session {
	if m.current == nil {
		return m.createSession(c)
	}
	return m.joinSession(m.current.id, c)
}

func (m *Manager) createSession(c Client) *Session {
	s := newSession(m)
	m.current = s
	m.log.Info("create session", logger.F("session", s.id))
	s.AddPlayer(c)
	return s
}

func (m *Manager) joinSession(id string, c Client) *Session {
	s := m.current
	if s == nil || s.id != id {
		return nil
	}
	if s.AddPlayer(c) == nil {
		return nil
	}
	return s
}

// RemoveSession drops the held session if its id matches.
func (m *Manager) RemoveSession(id string) {
	s := m.current
	if s == nil || s.id != id {
		return
	}
	m.current = nil
	s.removeFromManager()
	m.log.Info("remove session", logger.F("session", id))
}

// Summary describes the current session, if any.
func (m *Manager) Summary() model.SessionSummary {
	if m.current == nil {
		return model.SessionSummary{Players: []model.MemberSummary{}}
	}
	return m.current.Summary()
}
