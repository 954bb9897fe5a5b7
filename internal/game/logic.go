package game

import (
	"math/rand"
	"slices"

	"github.com/samber/lo"
)

// Game is the rules state of one game: turn counter, point-card pool and
// players. It performs no I/O.
type Game struct {
	turnNum            int
	pointCards         []int
	openPointCardCount int
	bidsOpen           bool

	players   []*Player
	playerMap map[string]*Player
}

// New creates a game with a freshly shuffled point-card pool.
func New(rng *rand.Rand) *Game {
	return NewWithPointCards(ShufflePointCards(rng))
}

// NewWithPointCards creates a game drawing point cards from cards in order.
func NewWithPointCards(cards []int) *Game {
	return &Game{
		turnNum:            1,
		pointCards:         slices.Clone(cards),
		openPointCardCount: 1,
		playerMap:          make(map[string]*Player),
	}
}

func (g *Game) TurnNum() int { return g.turnNum }

// IsFinished reports whether the last turn has been played.
func (g *Game) IsFinished() bool {
	return g.turnNum > MaxTurns
}

// PointCards returns a copy of the remaining pool in draw order.
func (g *Game) PointCards() []int { return slices.Clone(g.pointCards) }

// OpenPointCardCount is the number of pool cards currently staked.
func (g *Game) OpenPointCardCount() int { return g.openPointCardCount }

// Players returns the players in join order.
func (g *Game) Players() []*Player { return slices.Clone(g.players) }

// FindPlayer returns the player with id, or nil.
func (g *Game) FindPlayer(id string) *Player {
	return g.playerMap[id]
}

// AddPlayer registers a new player; it returns nil if id is taken.
func (g *Game) AddPlayer(id, name string) *Player {
	if _, ok := g.playerMap[id]; ok {
		return nil
	}
	p := newPlayer(id, name)
	g.players = append(g.players, p)
	g.playerMap[id] = p
	return p
}

// RemovePlayer drops the player with id. Unknown ids are ignored.
func (g *Game) RemovePlayer(id string) {
	if _, ok := g.playerMap[id]; !ok {
		return
	}
	g.players = slices.DeleteFunc(g.players, func(p *Player) bool { return p.id == id })
	delete(g.playerMap, id)
}

// AllPlayersBid reports whether every player has a pending bid.
func (g *Game) AllPlayersBid() bool {
	if len(g.players) == 0 {
		return false
	}
	return lo.EveryBy(g.players, func(p *Player) bool { return p.hasBid })
}

// BidsOpen reports whether pending bids are publicly revealed.
func (g *Game) BidsOpen() bool { return g.bidsOpen }

// OpenBids reveals the pending bids.
func (g *Game) OpenBids() { g.bidsOpen = true }

// TotalOpenPoint sums the staked point cards.
func (g *Game) TotalOpenPoint() int {
	n := min(g.openPointCardCount, len(g.pointCards))
	return lo.Sum(g.pointCards[:n])
}

// TurnWinner resolves the current bids. It returns nil when bids are
// still pending or every bid value was tied.
func (g *Game) TurnWinner() *Player {
	if !g.AllPlayersBid() {
		return nil
	}
	return resolveWinner(g.players, g.TotalOpenPoint())
}

// NextTurn resolves the current turn and advances the counter: bids move to
// the used piles, the winner (if any) takes the staked point cards, and the
// stake either resets or grows by one after a turn without a winner.
func (g *Game) NextTurn() error {
	if g.IsFinished() {
		return ErrGameFinished
	}
	if !g.AllPlayersBid() {
		return ErrBidsPending
	}

	winner := g.TurnWinner()
	for _, p := range g.players {
		if err := p.MoveBidToUsed(); err != nil {
			return err
		}
	}
	g.bidsOpen = false

	if winner != nil {
		n := min(g.openPointCardCount, len(g.pointCards))
		winner.pointCards = append(winner.pointCards, g.pointCards[:n]...)
		g.pointCards = slices.Delete(g.pointCards, 0, n)
		if len(g.pointCards) == 0 {
			g.openPointCardCount = 0
		} else {
			g.openPointCardCount = 1
		}
	} else {
		g.openPointCardCount = min(g.openPointCardCount+1, len(g.pointCards))
	}

	g.turnNum++
	return nil
}

// Result summarizes the standing of every player.
type Result struct {
	TurnNum int
	Players []PlayerResult
}

// PlayerResult is one player's final standing.
type PlayerResult struct {
	ID     string
	Name   string
	Points int
	Winner bool
}

// WinnerIDs lists the ids flagged as winners.
func (r Result) WinnerIDs() []string {
	winners := lo.Filter(r.Players, func(p PlayerResult, _ int) bool { return p.Winner })
	return lo.Map(winners, func(p PlayerResult, _ int) string { return p.ID })
}

// Result reports every player's point total. The highest total wins and
// ties share the win; a lone remaining player wins regardless of points.
func (g *Game) Result() Result {
	best := 0
	if len(g.players) > 0 {
		best = lo.Max(lo.Map(g.players, func(p *Player, _ int) int { return p.TotalPoint() }))
	}

	res := Result{TurnNum: g.turnNum}
	for _, p := range g.players {
		total := p.TotalPoint()
		res.Players = append(res.Players, PlayerResult{
			ID:     p.id,
			Name:   p.name,
			Points: total,
			Winner: len(g.players) == 1 || total == best,
		})
	}
	return res
}
