package server

import (
	"pointbid/internal/game"
	"pointbid/internal/session"
)

// event is anything a connection state reacts to: transport traffic or a
// notification from the session.
type event interface {
	name() string
}

type messageEvent struct{ raw []byte }
type closedEvent struct{}
type errorEvent struct{ err error }

type membersEvent struct {
	sess    *session.Session
	members []*session.Player
	removed []string
}

type gameStartedEvent struct{ game *game.Game }
type turnStartedEvent struct{}
type turnFinishedEvent struct{}
type gameFinishedEvent struct{ game *game.Game }
type finishAckEvent struct{}

type opponentBidEvent struct {
	playerID string
	card     int
}

type faultEvent struct{ err error }

func (messageEvent) name() string      { return "message" }
func (closedEvent) name() string       { return "closed" }
func (errorEvent) name() string        { return "error" }
func (membersEvent) name() string      { return "members" }
func (gameStartedEvent) name() string  { return "game started" }
func (turnStartedEvent) name() string  { return "turn started" }
func (turnFinishedEvent) name() string { return "turn finished" }
func (gameFinishedEvent) name() string { return "game finished" }
func (finishAckEvent) name() string    { return "finish ack" }
func (opponentBidEvent) name() string  { return "opponent bid" }
func (faultEvent) name() string        { return "fault" }
