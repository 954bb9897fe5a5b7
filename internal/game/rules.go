package game

import (
	"errors"
	"math/rand"

	"github.com/samber/lo"
)

const (
	// MaxTurns is the number of turns in a game.
	MaxTurns = 10
	// HandSize is the number of bid cards dealt to each player (1..HandSize).
	HandSize = 10

	minPointCard = -3
	maxPointCard = 7
)

var (
	ErrGameFinished = errors.New("game: already finished")
	ErrBidsPending  = errors.New("game: not every player has bid")
	ErrInvalidCard  = errors.New("game: card not in hand")
	ErrAlreadyBid   = errors.New("game: bid already placed")
	ErrNoBid        = errors.New("game: no pending bid")
)

// PointCardValues returns the point-card values in ascending order, zero
// excluded.
func PointCardValues() []int {
	values := make([]int, 0, maxPointCard-minPointCard)
	for v := minPointCard; v <= maxPointCard; v++ {
		if v != 0 {
			values = append(values, v)
		}
	}
	return values
}

// ShufflePointCards returns a uniformly shuffled pool. A nil rng uses the
// global source.
func ShufflePointCards(rng *rand.Rand) []int {
	cards := PointCardValues()
	shuffle := rand.Shuffle
	if rng != nil {
		shuffle = rng.Shuffle
	}
	shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	return cards
}

// resolveWinner picks the turn winner from the pending bids. Bid values
// chosen by more than one player are discarded entirely; of the remaining
// values the highest wins when potSum is non-negative and the lowest wins
// otherwise. It returns nil when no value is left.
func resolveWinner(players []*Player, potSum int) *Player {
	groups := lo.GroupBy(players, func(p *Player) int { return p.bidCard })
	unique := lo.PickBy(groups, func(_ int, ps []*Player) bool { return len(ps) == 1 })
	if len(unique) == 0 {
		return nil
	}

	values := lo.Keys(unique)
	winning := lo.Max(values)
	if potSum < 0 {
		winning = lo.Min(values)
	}
	return unique[winning][0]
}
