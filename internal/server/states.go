package server

import (
	"pointbid/internal/game"
	"pointbid/internal/logger"
	"pointbid/internal/model"
	"pointbid/internal/session"
)

// StateKind names a connection state.
type StateKind int

const (
	WaitingSignIn StateKind = iota
	Idle
	JoiningSession
	WaitingReady
	WaitingGameStart
	GameStarting
	Bidding
	WaitingBidResolution
	TurnFinishing
	TurnStarting
	GameFinishing
	Dormant
)

var stateNames = [...]string{
	WaitingSignIn:        "WaitingSignIn",
	Idle:                 "Idle",
	JoiningSession:       "JoiningSession",
	WaitingReady:         "WaitingReady",
	WaitingGameStart:     "WaitingGameStart",
	GameStarting:         "GameStarting",
	Bidding:              "Bidding",
	WaitingBidResolution: "WaitingBidResolution",
	TurnFinishing:        "TurnFinishing",
	TurnStarting:         "TurnStarting",
	GameFinishing:        "GameFinishing",
	Dormant:              "Dormant",
}

func (k StateKind) String() string {
	if k < 0 || int(k) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[k]
}

type state interface {
	kind() StateKind
	enter(c *Conn)
	exit(c *Conn)
	handle(c *Conn, ev event)
}

// quiet provides empty enter and exit hooks.
type quiet struct{}

func (quiet) enter(*Conn) {}
func (quiet) exit(*Conn)  {}

// connectedDefault handles events for a connection that is not in a
// session.
func connectedDefault(c *Conn, ev event) {
	switch ev := ev.(type) {
	case messageEvent:
		c.log.Warn("unknown message received", logger.F("message", string(ev.raw)))
		c.send(model.NewError(model.ErrorInvalidMessage))
		c.teardown(nil)
	case closedEvent:
		c.log.Info("socket closed")
		c.teardown(nil)
	case errorEvent:
		c.log.Warn("transport error", logger.F("error", ev.err.Error()))
		c.teardown(nil)
	case gameStartedEvent, turnStartedEvent, turnFinishedEvent, gameFinishedEvent, faultEvent:
		c.log.Error("unexpected session event", logger.F("event", ev.name()), logger.F("state", c.State().String()))
		c.serverBug(nil)
	}
}

// inSessionDefault handles events for a connection that has joined a
// session but is not playing.
func inSessionDefault(c *Conn, sp *session.Player, ev event) {
	switch ev := ev.(type) {
	case messageEvent:
		c.log.Warn("unknown message received", logger.F("message", string(ev.raw)))
		c.send(model.NewError(model.ErrorInvalidMessage))
		c.teardown(sp)
	case closedEvent:
		c.log.Info("socket closed")
		c.teardown(sp)
	case errorEvent:
		c.log.Warn("transport error", logger.F("error", ev.err.Error()))
		c.teardown(sp)
	case membersEvent:
		c.send(model.NewUpdatePlayers(playerInfos(c, ev.sess, ev.members)))
	case faultEvent:
		c.log.Error("session fault", logger.F("error", ev.err.Error()))
		c.serverBug(sp)
	case gameStartedEvent, turnStartedEvent, turnFinishedEvent, gameFinishedEvent:
		c.log.Error("unexpected session event", logger.F("event", ev.name()), logger.F("state", c.State().String()))
		c.serverBug(sp)
	}
}

// inGameDefault handles events shared by every in-game state.
func inGameDefault(c *Conn, sp *session.Player, ev event) {
	switch ev := ev.(type) {
	case membersEvent:
		for _, id := range ev.removed {
			c.send(model.NewLeavePlayer(id))
		}
	case gameFinishedEvent:
		// other players leaving can end the game at any point
		c.changeState(&gameFinishing{sp: sp, game: ev.game})
	default:
		inSessionDefault(c, sp, ev)
	}
}

func forwardOpponentBid(c *Conn, sp *session.Player, ev opponentBidEvent) {
	obj := sp.GameObject()
	if obj == nil {
		return
	}
	g := obj.Game()
	var card *int
	if g.BidsOpen() {
		card = &ev.card
	}
	c.send(model.NewUpdatePlayerBidStatus(g.TurnNum(), ev.playerID, card))
}

type waitingSignIn struct{}

func (*waitingSignIn) kind() StateKind { return WaitingSignIn }
func (*waitingSignIn) exit(*Conn)      {}

func (*waitingSignIn) enter(c *Conn) {
	c.log.Info("connect client")
	c.send(model.NewHello())
}

func (*waitingSignIn) handle(c *Conn, ev event) {
	if m, ok := ev.(messageEvent); ok {
		if req, err := model.DecodeRequest(m.raw); err == nil {
			if signIn, ok := req.(model.SignInRequest); ok {
				c.setPlayerName(signIn.PlayerName)
				c.send(model.NewSignInResult(signIn.RequestID()))
				c.log.Info("client signin")
				c.changeState(&idle{})
				return
			}
		}
	}
	connectedDefault(c, ev)
}

type idle struct{ quiet }

func (*idle) kind() StateKind { return Idle }

func (*idle) handle(c *Conn, ev event) {
	if m, ok := ev.(messageEvent); ok {
		if req, err := model.DecodeRequest(m.raw); err == nil {
			if join, ok := req.(model.JoinSessionRequest); ok {
				c.log.Info("client request join session")
				c.changeState(&joiningSession{requestID: join.RequestID()})
				return
			}
		}
	}
	connectedDefault(c, ev)
}

type joiningSession struct {
	requestID int64
}

func (*joiningSession) kind() StateKind { return JoiningSession }
func (*joiningSession) exit(*Conn)      {}

// enter joins the session. On success the membership event arrives before
// CreateOrJoinSession returns and moves the connection on.
func (s *joiningSession) enter(c *Conn) {
	if c.manager.CreateOrJoinSession(c) != nil {
		return
	}
	c.send(model.NewJoinSessionResult(s.requestID, false, nil))
	c.log.Info("client session already closed")
	c.changeState(&idle{})
}

func (s *joiningSession) handle(c *Conn, ev event) {
	m, ok := ev.(membersEvent)
	if !ok {
		connectedDefault(c, ev)
		return
	}
	sp := m.sess.FindPlayerByClient(c)
	if sp == nil {
		c.log.Error("joined session without a player")
		c.serverBug(nil)
		return
	}
	c.log.Info("client session joined", logger.F("session", m.sess.ID()))
	// the next state owns the player, so move first and acknowledge after
	c.changeState(&waitingReady{sp: sp})
	c.send(model.NewJoinSessionResult(s.requestID, true, playerInfos(c, m.sess, m.members)))
}

type waitingReady struct {
	quiet
	sp *session.Player
}

func (*waitingReady) kind() StateKind { return WaitingReady }

func (s *waitingReady) handle(c *Conn, ev event) {
	if m, ok := ev.(messageEvent); ok {
		if req, err := model.DecodeRequest(m.raw); err == nil {
			if ready, ok := req.(model.ReadyGameRequest); ok {
				c.send(model.NewReadyGameResult(ready.RequestID()))
				c.log.Info("client game ready")
				c.changeState(&waitingGameStart{sp: s.sp})
				// after the move so the game start lands in the next state
				s.sp.ReadyUp()
				return
			}
		}
	}
	inSessionDefault(c, s.sp, ev)
}

type waitingGameStart struct {
	quiet
	sp *session.Player
}

func (*waitingGameStart) kind() StateKind { return WaitingGameStart }

func (s *waitingGameStart) handle(c *Conn, ev event) {
	if started, ok := ev.(gameStartedEvent); ok {
		c.changeState(&gameStarting{sp: s.sp, game: started.game})
		return
	}
	inSessionDefault(c, s.sp, ev)
}

type gameStarting struct {
	sp   *session.Player
	game *game.Game
}

func (*gameStarting) kind() StateKind { return GameStarting }
func (*gameStarting) exit(*Conn)      {}

// enter binds the player to the game and sends the opening snapshot, which
// also starts the first turn.
func (s *gameStarting) enter(c *Conn) {
	obj := session.NewGameObject(s.game, s.sp)
	if obj.Player() == nil {
		c.log.Error("start game: player not found in game")
		s.sp.SetGameObject(nil)
		c.serverBug(s.sp)
		return
	}
	s.sp.SetGameObject(obj)

	info, ok := c.gameInfo(s.sp)
	if !ok {
		return
	}
	c.send(model.NewStartGame(info))
	c.log.Info("game start", logger.F("turn", info.TurnNum))
	c.changeState(&bidding{sp: s.sp})
}

func (s *gameStarting) handle(c *Conn, ev event) {
	inGameDefault(c, s.sp, ev)
}

type bidding struct {
	quiet
	sp *session.Player
}

func (*bidding) kind() StateKind { return Bidding }

func (s *bidding) handle(c *Conn, ev event) {
	switch ev := ev.(type) {
	case messageEvent:
		req, err := model.DecodeRequest(ev.raw)
		bid, ok := req.(model.BidRequest)
		if err != nil || !ok {
			inGameDefault(c, s.sp, ev)
			return
		}
		obj := c.gameObject(s.sp)
		if obj == nil {
			return
		}
		result := bidResult(obj, bid)
		c.send(model.NewBidResult(bid.RequestID(), result))
		if result != model.BidSuccess {
			return
		}
		c.changeState(&waitingBidResolution{sp: s.sp, card: bid.BidCard})
	case opponentBidEvent:
		forwardOpponentBid(c, s.sp, ev)
	default:
		inGameDefault(c, s.sp, ev)
	}
}

func bidResult(obj *session.GameObject, bid model.BidRequest) model.BidResultCode {
	gp := obj.Player()
	switch {
	case bid.TurnNum != obj.Game().TurnNum():
		return model.BidInvalidTurnNum
	case gp.HasBid():
		return model.BidAlreadyBid
	case gp.CardIndex(bid.BidCard) < 0:
		return model.BidInvalidCard
	default:
		return model.BidSuccess
	}
}

type waitingBidResolution struct {
	sp   *session.Player
	card int
}

func (*waitingBidResolution) kind() StateKind { return WaitingBidResolution }
func (*waitingBidResolution) exit(*Conn)      {}

// enter commits the bid, tells the other members and lets the session
// resolve the turn if this was the last bid.
func (s *waitingBidResolution) enter(c *Conn) {
	obj := c.gameObject(s.sp)
	if obj == nil {
		return
	}
	gp := obj.Player()
	if err := gp.MoveToBid(gp.CardIndex(s.card)); err != nil {
		c.log.Error("can't move card to bid", logger.F("card", s.card), logger.F("error", err.Error()))
		s.sp.SetGameObject(nil)
		c.serverBug(s.sp)
		return
	}
	s.sp.BidToOpponents(s.card)
	if sess := s.sp.Session(); sess != nil {
		sess.UpdateGameProgress()
	}
}

func (s *waitingBidResolution) handle(c *Conn, ev event) {
	switch ev := ev.(type) {
	case turnFinishedEvent:
		c.changeState(&turnFinishing{sp: s.sp})
	case opponentBidEvent:
		forwardOpponentBid(c, s.sp, ev)
	case messageEvent:
		// a repeated bid for the pending turn is answered, not fatal
		req, err := model.DecodeRequest(ev.raw)
		if bid, ok := req.(model.BidRequest); err == nil && ok {
			if obj := c.gameObject(s.sp); obj != nil {
				c.send(model.NewBidResult(bid.RequestID(), bidResult(obj, bid)))
			}
			return
		}
		inGameDefault(c, s.sp, ev)
	default:
		inGameDefault(c, s.sp, ev)
	}
}

type turnFinishing struct {
	sp *session.Player
}

func (*turnFinishing) kind() StateKind { return TurnFinishing }
func (*turnFinishing) exit(*Conn)      {}

func (s *turnFinishing) enter(c *Conn) {
	info, ok := c.gameInfo(s.sp)
	if !ok {
		return
	}
	c.log.Info("finish game turn", logger.F("turn", info.TurnNum))
	c.send(model.NewFinishTurn(info))
}

func (s *turnFinishing) handle(c *Conn, ev event) {
	if _, ok := ev.(turnStartedEvent); ok {
		c.changeState(&turnStarting{sp: s.sp})
		return
	}
	inGameDefault(c, s.sp, ev)
}

type turnStarting struct {
	sp *session.Player
}

func (*turnStarting) kind() StateKind { return TurnStarting }
func (*turnStarting) exit(*Conn)      {}

// enter sends the new turn snapshot and goes straight back to bidding.
func (s *turnStarting) enter(c *Conn) {
	info, ok := c.gameInfo(s.sp)
	if !ok {
		return
	}
	c.send(model.NewStartTurn(info))
	c.log.Info("start game turn", logger.F("turn", info.TurnNum))
	c.changeState(&bidding{sp: s.sp})
}

func (s *turnStarting) handle(c *Conn, ev event) {
	inGameDefault(c, s.sp, ev)
}

// gameFinishing sends the final snapshot and then waits for the session's
// acknowledgement request; transport events are ignored meanwhile.
type gameFinishing struct {
	sp   *session.Player
	game *game.Game
}

func (*gameFinishing) kind() StateKind { return GameFinishing }
func (*gameFinishing) exit(*Conn)      {}

func (s *gameFinishing) enter(c *Conn) {
	if s.game == nil || s.sp.GameObject() == nil {
		// cleanup is left to the acknowledgement
		c.log.Error("finish game: game not found")
		c.send(model.NewError(model.ErrorServerBug))
		return
	}
	info, ok := buildGameInfo(s.game, s.sp.ID())
	if !ok {
		c.log.Error("finish game: player not found in game")
		c.send(model.NewError(model.ErrorServerBug))
		return
	}
	c.log.Info("finish game", logger.F("turn", info.TurnNum))
	c.send(model.NewFinishGame(info, s.game.Result().WinnerIDs()))
}

func (s *gameFinishing) handle(c *Conn, ev event) {
	if _, ok := ev.(finishAckEvent); ok {
		s.sp.SetGameObject(nil)
		c.teardown(s.sp)
	}
}

type dormant struct{ quiet }

func (dormant) kind() StateKind     { return Dormant }
func (dormant) handle(*Conn, event) {}
