package session

import (
	"crypto/sha256"
	"encoding/hex"

	"pointbid/internal/game"
)

// Client is the connection side of a session member. Session events are
// delivered to it synchronously on the job loop.
type Client interface {
	Key() string
	PlayerName() string

	OnMembershipChanged(s *Session, members []*Player, removed []string)
	OnGameStarted(g *game.Game)
	OnTurnStarted()
	OnTurnFinished()
	OnGameFinished(g *game.Game)
	OnGameFinishedAck()
	OnOpponentBid(playerID string, card int)
	OnServerFault(err error)
}

// PlayerID derives the member id for a connection key.
func PlayerID(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GameObject binds a member to its record inside a running game.
type GameObject struct {
	game   *game.Game
	player *game.Player
}

// NewGameObject looks up sp inside g. Player is nil when g does not know sp.
func NewGameObject(g *game.Game, sp *Player) *GameObject {
	return &GameObject{game: g, player: g.FindPlayer(sp.ID())}
}

func (o *GameObject) Game() *game.Game     { return o.game }
func (o *GameObject) Player() *game.Player { return o.player }

// Player bridges one Client to one Session.
type Player struct {
	id         string
	session    *Session
	client     Client
	ready      bool
	gameObject *GameObject
}

func newPlayer(s *Session, c Client) *Player {
	return &Player{
		id:      PlayerID(c.Key()),
		session: s,
		client:  c,
	}
}

func (p *Player) ID() string              { return p.id }
func (p *Player) Name() string            { return p.client.PlayerName() }
func (p *Player) Client() Client          { return p.client }
func (p *Player) IsReady() bool           { return p.ready }
func (p *Player) Session() *Session       { return p.session }
func (p *Player) Detached() bool          { return p.session == nil }
func (p *Player) GameObject() *GameObject { return p.gameObject }

func (p *Player) SetGameObject(o *GameObject) {
	p.gameObject = o
}

// ReadyUp marks the member ready and lets the session check whether the
// game can start. Repeated calls do nothing.
func (p *Player) ReadyUp() {
	if p.ready {
		return
	}
	p.ready = true
	if p.session != nil {
		p.session.UpdateReadyStatus()
	}
}

// BidToOpponents tells every other member that this member has bid.
func (p *Player) BidToOpponents(card int) {
	if p.session == nil {
		return
	}
	for _, m := range p.session.Players() {
		m.opponentBid(p.id, card)
	}
}

// Remove asks the owning session to drop this member.
func (p *Player) Remove() {
	if p.session != nil {
		p.session.RemovePlayer(p)
	}
}

// RemoveFromSession severs the binding without asking the session to
// remove anything.
func (p *Player) RemoveFromSession() {
	p.session = nil
}

func (p *Player) updateMembers(s *Session, members []*Player, removed []string) {
	p.client.OnMembershipChanged(s, members, removed)
}

func (p *Player) startGame(g *game.Game)  { p.client.OnGameStarted(g) }
func (p *Player) startTurn()              { p.client.OnTurnStarted() }
func (p *Player) finishTurn()             { p.client.OnTurnFinished() }
func (p *Player) finishGame(g *game.Game) { p.client.OnGameFinished(g) }
func (p *Player) finishGameAck()          { p.client.OnGameFinishedAck() }
func (p *Player) serverFault(err error)   { p.client.OnServerFault(err) }

func (p *Player) opponentBid(playerID string, card int) {
	if playerID != p.id {
		p.client.OnOpponentBid(playerID, card)
	}
}
