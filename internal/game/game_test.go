package game

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bid(t *testing.T, p *Player, card int) {
	t.Helper()
	require.NoError(t, p.MoveToBid(p.CardIndex(card)))
}

func pointCardTotal(g *Game) int {
	n := len(g.PointCards())
	for _, p := range g.Players() {
		n += len(p.PointCards())
	}
	return n
}

func TestPointCardValues(t *testing.T) {
	values := PointCardValues()
	assert.Len(t, values, 10)
	assert.NotContains(t, values, 0)
	assert.Equal(t, -3, values[0])
	assert.Equal(t, 7, values[len(values)-1])
}

func TestShufflePointCards_IsPermutation(t *testing.T) {
	cards := ShufflePointCards(rand.New(rand.NewSource(7)))
	sorted := slices.Clone(cards)
	slices.Sort(sorted)
	assert.Equal(t, PointCardValues(), sorted)
}

func TestNew_InitialState(t *testing.T) {
	g := New(rand.New(rand.NewSource(1)))
	p := g.AddPlayer("a", "alice")
	require.NotNil(t, p)

	assert.Equal(t, 1, g.TurnNum())
	assert.Equal(t, 1, g.OpenPointCardCount())
	assert.False(t, g.IsFinished())
	assert.False(t, g.BidsOpen())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, p.Cards())
	assert.Equal(t, 10, pointCardTotal(g))
}

func TestGame_AddRemovePlayer(t *testing.T) {
	g := NewWithPointCards(PointCardValues())
	require.NotNil(t, g.AddPlayer("a", "alice"))
	assert.Nil(t, g.AddPlayer("a", "again"))
	require.NotNil(t, g.AddPlayer("b", "bob"))

	g.RemovePlayer("a")
	g.RemovePlayer("a")
	g.RemovePlayer("missing")

	assert.Nil(t, g.FindPlayer("a"))
	require.Len(t, g.Players(), 1)
	assert.Equal(t, "b", g.Players()[0].ID())
}

func TestPlayer_MoveToBid(t *testing.T) {
	p := newPlayer("a", "alice")

	assert.ErrorIs(t, p.MoveToBid(-1), ErrInvalidCard)
	assert.ErrorIs(t, p.MoveBidToUsed(), ErrNoBid)

	require.NoError(t, p.MoveToBid(p.CardIndex(4)))
	card, ok := p.BidCard()
	assert.True(t, ok)
	assert.Equal(t, 4, card)
	assert.Equal(t, -1, p.CardIndex(4))
	assert.ErrorIs(t, p.MoveToBid(0), ErrAlreadyBid)
	assert.Equal(t, HandSize, p.CardCount())

	require.NoError(t, p.MoveBidToUsed())
	assert.Equal(t, []int{4}, p.UsedCards())
	assert.False(t, p.HasBid())
	assert.Equal(t, HandSize, p.CardCount())
}

func TestNextTurn_Preconditions(t *testing.T) {
	g := NewWithPointCards(PointCardValues())
	a := g.AddPlayer("a", "alice")
	g.AddPlayer("b", "bob")

	bid(t, a, 1)
	assert.ErrorIs(t, g.NextTurn(), ErrBidsPending)
	assert.Nil(t, g.TurnWinner())
	assert.Equal(t, 1, g.TurnNum())
}

func TestNextTurn_TieHasNoWinner(t *testing.T) {
	g := NewWithPointCards([]int{3, 1, 2, 4, 5, 6, 7, -1, -2, -3})
	a := g.AddPlayer("a", "alice")
	b := g.AddPlayer("b", "bob")

	bid(t, a, 5)
	bid(t, b, 5)
	assert.Nil(t, g.TurnWinner())
	require.NoError(t, g.NextTurn())

	assert.Equal(t, 2, g.TurnNum())
	assert.Equal(t, 2, g.OpenPointCardCount())
	assert.Equal(t, []int{5}, a.UsedCards())
	assert.Equal(t, []int{5}, b.UsedCards())
	assert.Empty(t, a.PointCards())
	assert.Len(t, g.PointCards(), 10)
}

func TestNextTurn_TiedValuesAreExcluded(t *testing.T) {
	g := NewWithPointCards([]int{2, 6, 1, 3, 4, 5, 7, -1, -2, -3})
	a := g.AddPlayer("a", "alice")
	b := g.AddPlayer("b", "bob")
	c := g.AddPlayer("c", "carol")

	// a tied turn first so two cards are staked
	bid(t, a, 1)
	bid(t, b, 1)
	bid(t, c, 1)
	require.NoError(t, g.NextTurn())
	require.Equal(t, 2, g.OpenPointCardCount())

	bid(t, a, 3)
	bid(t, b, 5)
	bid(t, c, 5)
	require.GreaterOrEqual(t, g.TotalOpenPoint(), 0)
	assert.Equal(t, a, g.TurnWinner())

	require.NoError(t, g.NextTurn())
	assert.Equal(t, []int{2, 6}, a.PointCards())
	assert.Empty(t, b.PointCards())
	assert.Empty(t, c.PointCards())
	assert.Equal(t, 1, g.OpenPointCardCount())
	assert.Equal(t, 8, len(g.PointCards()))
}

func TestTurnWinner_SignRule(t *testing.T) {
	tests := []struct {
		name   string
		pool   []int
		bids   []int
		winner int
	}{
		{"positive pot takes max", []int{5, 1, 2, 3, 4, 6, 7, -1, -2, -3}, []int{2, 9, 4}, 1},
		{"negative pot takes min", []int{-2, 1, 2, 3, 4, 5, 6, 7, -1, -3}, []int{2, 9, 4}, 0},
		{"max tied falls to next max", []int{5, 1, 2, 3, 4, 6, 7, -1, -2, -3}, []int{9, 9, 4}, 2},
		{"min tied falls to next min", []int{-2, 1, 2, 3, 4, 5, 6, 7, -1, -3}, []int{2, 2, 4}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithPointCards(tt.pool)
			ids := []string{"a", "b", "c"}
			for i, id := range ids {
				bid(t, g.AddPlayer(id, id), tt.bids[i])
			}
			w := g.TurnWinner()
			require.NotNil(t, w)
			assert.Equal(t, ids[tt.winner], w.ID())
		})
	}
}

func TestNextTurn_StakeIsCappedAtPool(t *testing.T) {
	g := NewWithPointCards([]int{1, 2})
	a := g.AddPlayer("a", "alice")
	b := g.AddPlayer("b", "bob")

	for turn := 1; turn <= 3; turn++ {
		bid(t, a, turn)
		bid(t, b, turn)
		require.NoError(t, g.NextTurn())
		assert.LessOrEqual(t, g.OpenPointCardCount(), len(g.PointCards()))
	}
	assert.Equal(t, 2, g.OpenPointCardCount())

	bid(t, a, 9)
	bid(t, b, 8)
	require.NoError(t, g.NextTurn())
	assert.Equal(t, []int{1, 2}, a.PointCards())
	assert.Equal(t, 0, g.OpenPointCardCount())
	assert.Empty(t, g.PointCards())
}

func TestFullGame_Invariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	g := New(rng)
	players := []*Player{g.AddPlayer("a", "alice"), g.AddPlayer("b", "bob"), g.AddPlayer("c", "carol")}

	for turn := 1; turn <= MaxTurns; turn++ {
		require.Equal(t, turn, g.TurnNum())
		require.False(t, g.IsFinished())
		for _, p := range players {
			hand := p.Cards()
			bid(t, p, hand[rng.Intn(len(hand))])
			assert.Equal(t, HandSize, p.CardCount())
		}
		g.OpenBids()
		assert.True(t, g.BidsOpen())
		require.NoError(t, g.NextTurn())
		assert.False(t, g.BidsOpen())
		assert.Equal(t, 10, pointCardTotal(g))
		for _, p := range players {
			assert.Equal(t, HandSize, p.CardCount())
			assert.Len(t, p.UsedCards(), turn)
		}
	}

	assert.True(t, g.IsFinished())
	assert.Equal(t, MaxTurns+1, g.TurnNum())
	assert.ErrorIs(t, g.NextTurn(), ErrGameFinished)
	for _, p := range players {
		assert.Empty(t, p.Cards())
	}
}

func TestResult(t *testing.T) {
	t.Run("highest total wins and ties share", func(t *testing.T) {
		g := NewWithPointCards(PointCardValues())
		a := g.AddPlayer("a", "alice")
		b := g.AddPlayer("b", "bob")
		c := g.AddPlayer("c", "carol")
		a.pointCards = []int{7}
		b.pointCards = []int{3, 4}
		c.pointCards = []int{-3}

		res := g.Result()
		assert.ElementsMatch(t, []string{"a", "b"}, res.WinnerIDs())
		assert.Equal(t, 7, res.Players[0].Points)
		assert.Equal(t, -3, res.Players[2].Points)
	})

	t.Run("lone survivor wins regardless of points", func(t *testing.T) {
		g := NewWithPointCards(PointCardValues())
		a := g.AddPlayer("a", "alice")
		g.AddPlayer("b", "bob").pointCards = []int{7}
		a.pointCards = []int{-3}
		g.RemovePlayer("b")

		assert.Equal(t, []string{"a"}, g.Result().WinnerIDs())
	})
}
