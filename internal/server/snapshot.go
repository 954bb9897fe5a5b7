package server

import (
	"github.com/samber/lo"

	"pointbid/internal/game"
	"pointbid/internal/model"
	"pointbid/internal/session"
)

// buildGameInfo renders g as seen by the player with myID. Opponent bids
// show as 0 until revealed. It fails when g does not know myID.
func buildGameInfo(g *game.Game, myID string) (model.GameInfo, bool) {
	me := g.FindPlayer(myID)
	if me == nil {
		return model.GameInfo{}, false
	}
	open := g.BidsOpen()

	info := model.GameInfo{
		MyPlayer: model.MyPlayer{
			ID:         me.ID(),
			Name:       me.Name(),
			Cards:      me.Cards(),
			PointCards: me.PointCards(),
			UsedCards:  me.UsedCards(),
			BidCard:    bidCardOf(me, true),
		},
		Players: lo.FilterMap(g.Players(), func(p *game.Player, _ int) (model.OtherPlayer, bool) {
			if p.ID() == myID {
				return model.OtherPlayer{}, false
			}
			return model.OtherPlayer{
				ID:         p.ID(),
				Name:       p.Name(),
				PointCards: p.PointCards(),
				UsedCards:  p.UsedCards(),
				BidCard:    bidCardOf(p, open),
			}, true
		}),
		TurnNum:            g.TurnNum(),
		PointCards:         g.PointCards(),
		OpenPointCardCount: g.OpenPointCardCount(),
		IsBidCardOpen:      open,
	}

	if g.AllPlayersBid() {
		w := &model.WinnerCurrentTurn{IsDraw: true}
		if winner := g.TurnWinner(); winner != nil {
			w.IsDraw = false
			w.PlayerName = winner.Name()
		}
		info.WinnerCurrentTurn = w
	}
	return info, true
}

func bidCardOf(p *game.Player, visible bool) *int {
	card, ok := p.BidCard()
	if !ok {
		return nil
	}
	if !visible {
		card = 0
	}
	return &card
}

func playerInfos(c session.Client, s *session.Session, members []*session.Player) []model.PlayerInfo {
	selfID := ""
	if self := s.FindPlayerByClient(c); self != nil {
		selfID = self.ID()
	}
	return lo.Map(members, func(p *session.Player, _ int) model.PlayerInfo {
		return model.PlayerInfo{ID: p.ID(), Name: p.Name(), Self: p.ID() == selfID}
	})
}
