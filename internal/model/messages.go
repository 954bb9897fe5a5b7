package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownMessage is returned for payloads that are not a known request.
var ErrUnknownMessage = errors.New("model: unknown message")

// Request is a decoded inbound message.
type Request interface {
	RequestID() int64
}

type SignInRequest struct {
	ID         int64
	PlayerName string
}

type JoinSessionRequest struct {
	ID int64
}

type ReadyGameRequest struct {
	ID int64
}

type BidRequest struct {
	ID      int64
	TurnNum int
	BidCard int
}

func (r SignInRequest) RequestID() int64      { return r.ID }
func (r JoinSessionRequest) RequestID() int64 { return r.ID }
func (r ReadyGameRequest) RequestID() int64   { return r.ID }
func (r BidRequest) RequestID() int64         { return r.ID }

// DecodeRequest classifies a raw frame into one of the request types.
func DecodeRequest(raw []byte) (Request, error) {
	var action Action
	if err := json.Unmarshal(raw, &action); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMessage, err)
	}

	switch action.Type {
	case TypeSignIn:
		return SignInRequest{ID: action.RequestID, PlayerName: action.PlayerName}, nil
	case TypeJoinSession:
		return JoinSessionRequest{ID: action.RequestID}, nil
	case TypeReadyGame:
		return ReadyGameRequest{ID: action.RequestID}, nil
	case TypeBid:
		if action.TurnNum == nil || action.BidCard == nil {
			return nil, fmt.Errorf("%w: bid without turnNum or bidCard", ErrUnknownMessage)
		}
		return BidRequest{ID: action.RequestID, TurnNum: *action.TurnNum, BidCard: *action.BidCard}, nil
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnknownMessage, action.Type)
	}
}

type requestResult struct {
	RequestID int64 `json:"requestId"`
}

type joinSessionResult struct {
	RequestID int64        `json:"requestId"`
	Success   bool         `json:"success"`
	Players   []PlayerInfo `json:"players"`
}

type updatePlayers struct {
	Players []PlayerInfo `json:"players"`
}

type gameInfoPayload struct {
	GameInfo GameInfo `json:"gameInfo"`
}

type finishGame struct {
	GameInfo  GameInfo `json:"gameInfo"`
	WinnerIDs []string `json:"winnerIds"`
}

type bidStatus struct {
	TurnNum  int    `json:"turnNum"`
	PlayerID string `json:"playerId"`
	BidCard  *int   `json:"bidCard,omitempty"`
}

type bidResult struct {
	RequestID int64         `json:"requestId"`
	Result    BidResultCode `json:"result"`
}

type leavePlayer struct {
	PlayerID string `json:"playerId"`
}

type errorPayload struct {
	ErrorID ErrorCode `json:"errorId"`
}

func NewHello() Message {
	return Message{Type: TypeHello}
}

func NewSignInResult(requestID int64) Message {
	return Message{Type: TypeSignInResult, Payload: requestResult{RequestID: requestID}}
}

func NewJoinSessionResult(requestID int64, success bool, players []PlayerInfo) Message {
	if players == nil {
		players = []PlayerInfo{}
	}
	return Message{Type: TypeJoinSessionResult, Payload: joinSessionResult{RequestID: requestID, Success: success, Players: players}}
}

func NewReadyGameResult(requestID int64) Message {
	return Message{Type: TypeReadyGameResult, Payload: requestResult{RequestID: requestID}}
}

func NewUpdatePlayers(players []PlayerInfo) Message {
	return Message{Type: TypeUpdatePlayers, Payload: updatePlayers{Players: players}}
}

func NewStartGame(info GameInfo) Message {
	return Message{Type: TypeStartGame, Payload: gameInfoPayload{GameInfo: info}}
}

func NewStartTurn(info GameInfo) Message {
	return Message{Type: TypeStartTurn, Payload: gameInfoPayload{GameInfo: info}}
}

func NewFinishTurn(info GameInfo) Message {
	return Message{Type: TypeFinishTurn, Payload: gameInfoPayload{GameInfo: info}}
}

func NewFinishGame(info GameInfo, winnerIDs []string) Message {
	if winnerIDs == nil {
		winnerIDs = []string{}
	}
	return Message{Type: TypeFinishGame, Payload: finishGame{GameInfo: info, WinnerIDs: winnerIDs}}
}

// NewUpdatePlayerBidStatus tells a player an opponent has bid. bidCard is
// only filled in when bids are revealed.
func NewUpdatePlayerBidStatus(turnNum int, playerID string, bidCard *int) Message {
	return Message{Type: TypeUpdatePlayerBidStatus, Payload: bidStatus{TurnNum: turnNum, PlayerID: playerID, BidCard: bidCard}}
}

func NewBidResult(requestID int64, result BidResultCode) Message {
	return Message{Type: TypeBidResult, Payload: bidResult{RequestID: requestID, Result: result}}
}

func NewLeavePlayer(playerID string) Message {
	return Message{Type: TypeLeavePlayer, Payload: leavePlayer{PlayerID: playerID}}
}

func NewError(code ErrorCode) Message {
	return Message{Type: TypeError, Payload: errorPayload{ErrorID: code}}
}
