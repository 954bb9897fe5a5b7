package game

import "slices"

// Player is one participant's cards inside a Game. Cards only ever move
// between hand, bid slot and used pile, so their combined count stays
// HandSize for the player's lifetime.
type Player struct {
	id   string
	name string

	hand       []int
	bidCard    int
	hasBid     bool
	usedCards  []int
	pointCards []int
}

func newPlayer(id, name string) *Player {
	hand := make([]int, 0, HandSize)
	for v := 1; v <= HandSize; v++ {
		hand = append(hand, v)
	}
	return &Player{
		id:         id,
		name:       name,
		hand:       hand,
		usedCards:  make([]int, 0, HandSize),
		pointCards: make([]int, 0),
	}
}

func (p *Player) ID() string   { return p.id }
func (p *Player) Name() string { return p.name }

// Cards returns a copy of the hand.
func (p *Player) Cards() []int { return slices.Clone(p.hand) }

// UsedCards returns a copy of the resolved bids, oldest first.
func (p *Player) UsedCards() []int { return slices.Clone(p.usedCards) }

// PointCards returns a copy of the point cards won so far.
func (p *Player) PointCards() []int { return slices.Clone(p.pointCards) }

// BidCard reports the pending bid, if any.
func (p *Player) BidCard() (int, bool) {
	return p.bidCard, p.hasBid
}

// HasBid reports whether a bid is pending.
func (p *Player) HasBid() bool { return p.hasBid }

// CardIndex returns the position of card in the hand, or -1.
func (p *Player) CardIndex(card int) int {
	return slices.Index(p.hand, card)
}

// MoveToBid moves the hand card at index into the bid slot.
func (p *Player) MoveToBid(index int) error {
	if p.hasBid {
		return ErrAlreadyBid
	}
	if index < 0 || index >= len(p.hand) {
		return ErrInvalidCard
	}
	p.bidCard = p.hand[index]
	p.hasBid = true
	p.hand = slices.Delete(p.hand, index, index+1)
	return nil
}

// MoveBidToUsed resolves the pending bid onto the used pile.
func (p *Player) MoveBidToUsed() error {
	if !p.hasBid {
		return ErrNoBid
	}
	p.usedCards = append(p.usedCards, p.bidCard)
	p.bidCard = 0
	p.hasBid = false
	return nil
}

// TotalPoint sums the point cards won.
func (p *Player) TotalPoint() int {
	total := 0
	for _, v := range p.pointCards {
		total += v
	}
	return total
}

// CardCount is |hand| + pending bid + |used|.
func (p *Player) CardCount() int {
	n := len(p.hand) + len(p.usedCards)
	if p.hasBid {
		n++
	}
	return n
}
