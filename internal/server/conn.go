package server

import (
	"encoding/json"

	"pointbid/internal/game"
	"pointbid/internal/logger"
	"pointbid/internal/model"
	"pointbid/internal/session"
)

// Conn is one client connection and its protocol state. Every method runs
// on the job loop.
type Conn struct {
	key        string
	transport  Transport
	registry   *Registry
	manager    *session.Manager
	log        logger.Logger
	playerName string

	state   state
	running bool
	removed bool
}

func newConn(key string, t Transport, r *Registry) *Conn {
	return &Conn{
		key:       key,
		transport: t,
		registry:  r,
		manager:   r.manager,
		log:       r.log.With(logger.F("conn", key)),
		state:     &waitingSignIn{},
	}
}

func (c *Conn) Key() string        { return c.key }
func (c *Conn) PlayerName() string { return c.playerName }
func (c *Conn) State() StateKind   { return c.state.kind() }
func (c *Conn) Running() bool      { return c.running }

// Start activates the current state. Starting twice does nothing.
func (c *Conn) Start() {
	if c.running {
		return
	}
	c.running = true
	c.state.enter(c)
}

// Stop runs the current state's exit hook and deactivates it.
func (c *Conn) Stop() {
	if !c.running {
		return
	}
	c.state.exit(c)
	c.running = false
}

func (c *Conn) changeState(next state) {
	c.log.Debug("change state", logger.F("from", c.state.kind().String()), logger.F("to", next.kind().String()))
	c.Stop()
	c.state = next
	c.Start()
}

func (c *Conn) dispatch(ev event) {
	if !c.running {
		return
	}
	c.state.handle(c, ev)
}

func (c *Conn) ReceiveMessage(raw []byte)  { c.dispatch(messageEvent{raw: raw}) }
func (c *Conn) OnTransportClosed()         { c.dispatch(closedEvent{}) }
func (c *Conn) OnTransportError(err error) { c.dispatch(errorEvent{err: err}) }

func (c *Conn) OnMembershipChanged(s *session.Session, members []*session.Player, removed []string) {
	c.dispatch(membersEvent{sess: s, members: members, removed: removed})
}

func (c *Conn) OnGameStarted(g *game.Game)  { c.dispatch(gameStartedEvent{game: g}) }
func (c *Conn) OnTurnStarted()              { c.dispatch(turnStartedEvent{}) }
func (c *Conn) OnTurnFinished()             { c.dispatch(turnFinishedEvent{}) }
func (c *Conn) OnGameFinished(g *game.Game) { c.dispatch(gameFinishedEvent{game: g}) }
func (c *Conn) OnGameFinishedAck()          { c.dispatch(finishAckEvent{}) }
func (c *Conn) OnServerFault(err error)     { c.dispatch(faultEvent{err: err}) }

func (c *Conn) OnOpponentBid(playerID string, card int) {
	c.dispatch(opponentBidEvent{playerID: playerID, card: card})
}

func (c *Conn) setPlayerName(name string) {
	c.playerName = name
	c.log = c.log.With(logger.F("player", name))
}

func (c *Conn) send(msg model.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Error("marshal message", logger.F("type", msg.Type), logger.F("error", err.Error()))
		return
	}
	if err := c.transport.Send(data); err != nil {
		c.log.Warn("send message", logger.F("type", msg.Type), logger.F("error", err.Error()))
	}
}

func (c *Conn) closeTransport() {
	if err := c.transport.Close(); err != nil {
		c.log.Debug("close transport", logger.F("error", err.Error()))
	}
}

// remove unregisters the connection, which moves it to Dormant.
func (c *Conn) remove() {
	if !c.removed {
		c.registry.Remove(c)
	}
}

func (c *Conn) removeFromRegistry() {
	if c.removed {
		return
	}
	c.removed = true
	c.changeState(dormant{})
}

// teardown detaches the connection from its session, closes the transport
// and unregisters it. A nil sp means the connection is not in a session.
func (c *Conn) teardown(sp *session.Player) {
	if sp != nil {
		sp.Remove()
	}
	c.closeTransport()
	c.remove()
}

func (c *Conn) serverBug(sp *session.Player) {
	c.log.Error("server bug")
	c.send(model.NewError(model.ErrorServerBug))
	c.teardown(sp)
}

// gameObject returns sp's binding to the running game, tearing the
// connection down when it is missing.
func (c *Conn) gameObject(sp *session.Player) *session.GameObject {
	obj := sp.GameObject()
	if obj == nil {
		c.log.Error("game object not found")
		c.serverBug(sp)
		return nil
	}
	return obj
}

func (c *Conn) gameInfo(sp *session.Player) (model.GameInfo, bool) {
	obj := c.gameObject(sp)
	if obj == nil {
		return model.GameInfo{}, false
	}
	info, ok := buildGameInfo(obj.Game(), sp.ID())
	if !ok {
		c.log.Error("create game info failed")
		sp.SetGameObject(nil)
		c.serverBug(sp)
		return model.GameInfo{}, false
	}
	return info, true
}
