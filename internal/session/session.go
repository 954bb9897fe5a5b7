package session

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"pointbid/internal/game"
	"pointbid/internal/logger"
	"pointbid/internal/model"
)

const (
	minPlayers    = 2
	recordTimeout = 5 * time.Second
)

// Recorder stores finished games.
type Recorder interface {
	RecordGame(ctx context.Context, sessionID string, forced bool, res game.Result) error
}

// Session is the matchmaking group and, once everyone is ready, the owner
// of its game. All methods must be called from the job loop.
type Session struct {
	id      string
	manager *Manager
	log     logger.Logger

	players   []*Player
	playerMap map[string]*Player
	clientMap map[string]*Player
	allowJoin bool

	game        *game.Game
	progressing bool
}

func newSession(m *Manager) *Session {
	id := uuid.NewString()
	return &Session{
		id:        id,
		manager:   m,
		log:       m.log.With(logger.F("session", id)),
		playerMap: make(map[string]*Player),
		clientMap: make(map[string]*Player),
		allowJoin: true,
	}
}

func (s *Session) ID() string { return s.id }

// AllowJoin reports whether new members are still accepted.
func (s *Session) AllowJoin() bool { return s.allowJoin }

// Game returns the running game, or nil.
func (s *Session) Game() *game.Game { return s.game }

// Players returns a snapshot of the members in join order.
func (s *Session) Players() []*Player { return slices.Clone(s.players) }

func (s *Session) FindPlayer(id string) *Player { return s.playerMap[id] }

func (s *Session) FindPlayerByClient(c Client) *Player { return s.clientMap[c.Key()] }

// AddPlayer admits c. It returns the existing member when c already joined
// and nil when joining is closed.
func (s *Session) AddPlayer(c Client) *Player {
	if !s.allowJoin {
		return nil
	}
	if p, ok := s.clientMap[c.Key()]; ok {
		return p
	}

	p := newPlayer(s, c)
	s.players = append(s.players, p)
	s.playerMap[p.id] = p
	s.clientMap[c.Key()] = p
	if s.game != nil {
		s.game.AddPlayer(p.id, s.playerName(p))
	}
	s.log.Info("player joined", logger.F("player", p.Name()), logger.F("members", len(s.players)))

	members := s.Players()
	for _, m := range members {
		m.updateMembers(s, members, []string{})
	}
	return p
}

// RemovePlayer drops p. When only one game player is left the game is
// finished in their favour. Removing a non-member does nothing.
func (s *Session) RemovePlayer(p *Player) {
	if _, ok := s.playerMap[p.id]; !ok {
		return
	}

	g := s.game
	forced := false
	if g != nil {
		g.RemovePlayer(p.id)
		forced = len(g.Players()) == 1
	}

	s.players = slices.DeleteFunc(s.players, func(m *Player) bool { return m.id == p.id })
	delete(s.playerMap, p.id)
	delete(s.clientMap, p.client.Key())
	p.RemoveFromSession()
	s.log.Info("player left", logger.F("player", p.Name()), logger.F("members", len(s.players)))

	if forced {
		// discarded up front so the notifications below cannot progress it
		s.game = nil
		s.log.Info("game finished by last player standing", logger.F("turn", g.TurnNum()))
		s.record(g, true)
	}

	survivors := s.Players()
	removed := []string{p.id}
	for _, m := range survivors {
		m.updateMembers(s, survivors, removed)
		if forced {
			m.finishGame(g)
		}
	}
	if forced {
		for _, m := range survivors {
			m.finishGameAck()
		}
	}

	if !s.allowJoin && len(s.players) == 0 {
		s.remove()
		return
	}
	if s.allowJoin {
		s.UpdateReadyStatus()
	} else if s.game != nil && len(s.game.Players()) >= minPlayers {
		s.UpdateGameProgress()
	}
}

// UpdateReadyStatus starts the game once at least two members are present
// and all of them are ready.
func (s *Session) UpdateReadyStatus() {
	if !s.allowJoin {
		return
	}
	members := s.Players()
	if len(members) < minPlayers {
		return
	}
	if !lo.EveryBy(members, func(m *Player) bool { return m.ready }) {
		return
	}

	s.allowJoin = false
	if s.game == nil {
		s.game = game.New(s.manager.rng)
		for _, m := range members {
			s.game.AddPlayer(m.id, s.playerName(m))
		}
	}
	g := s.game
	s.log.Info("game start", logger.F("players", len(members)))

	for _, m := range members {
		if s.game != g {
			return
		}
		m.startGame(g)
	}
}

// UpdateGameProgress resolves the turn once every game player has bid.
func (s *Session) UpdateGameProgress() {
	g := s.game
	if g == nil || g.IsFinished() || !g.AllPlayersBid() || s.progressing {
		return
	}
	s.progressing = true
	defer func() { s.progressing = false }()

	g.OpenBids()
	members := s.Players()
	for _, m := range members {
		if s.game != g {
			return
		}
		m.finishTurn()
	}
	if s.game != g {
		return
	}
	s.log.Info("turn finished", logger.F("turn", g.TurnNum()))

	if err := s.manager.advance(g); err != nil {
		s.fault(fmt.Errorf("advance turn %d: %w", g.TurnNum(), err), members)
		return
	}

	if !g.IsFinished() {
		s.log.Info("turn start", logger.F("turn", g.TurnNum()))
		for _, m := range members {
			if s.game != g {
				return
			}
			m.startTurn()
		}
		return
	}

	// discarded up front so removals triggered by the acks below cannot
	// progress it
	s.game = nil
	s.log.Info("game finished", logger.F("winners", g.Result().WinnerIDs()))
	s.record(g, false)

	members = s.Players()
	for _, m := range members {
		m.finishGame(g)
	}
	for _, m := range members {
		m.finishGameAck()
	}
	s.remove()
}

// Summary describes the session for status queries.
func (s *Session) Summary() model.SessionSummary {
	sum := model.SessionSummary{
		Exists:           true,
		ID:               s.id,
		AcceptingPlayers: s.allowJoin,
		InGame:           s.game != nil,
		Players: lo.Map(s.players, func(p *Player, _ int) model.MemberSummary {
			return model.MemberSummary{ID: p.id, Name: p.Name(), Ready: p.ready}
		}),
	}
	if s.game != nil {
		sum.TurnNum = s.game.TurnNum()
	}
	return sum
}

func (s *Session) fault(err error, members []*Player) {
	s.log.Error("server bug", logger.F("error", err.Error()))
	s.game = nil
	for _, m := range members {
		m.serverFault(err)
	}
	s.remove()
}

func (s *Session) remove() {
	s.manager.RemoveSession(s.id)
}

func (s *Session) removeFromManager() {
	s.allowJoin = false
	s.game = nil
	clear(s.playerMap)
	clear(s.clientMap)
	members := s.players
	s.players = nil
	for _, p := range members {
		p.RemoveFromSession()
	}
}

func (s *Session) playerName(p *Player) string {
	name := p.Name()
	if name == "" {
		name = fmt.Sprintf("player_%d", s.manager.rng.Intn(1000))
		s.log.Warn("member has no player name", logger.F("player_id", p.id), logger.F("fallback", name))
	}
	return name
}

// record hands g's result to the recorder off the job loop.
func (s *Session) record(g *game.Game, forced bool) {
	rec := s.manager.recorder
	if rec == nil {
		return
	}
	id, res, log := s.id, g.Result(), s.log
	s.manager.records.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := rec.RecordGame(ctx, id, forced, res); err != nil {
			log.Warn("record game failed", logger.F("error", err.Error()))
			return fmt.Errorf("record game of session %s: %w", id, err)
		}
		return nil
	})
}
