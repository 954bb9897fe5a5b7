package model

// Message is the outbound envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Action is the inbound envelope. Fields not used by a given type are left
// at their zero value.
type Action struct {
	Type       string `json:"type"`
	RequestID  int64  `json:"requestId"`
	PlayerName string `json:"playerName,omitempty"`
	TurnNum    *int   `json:"turnNum,omitempty"`
	BidCard    *int   `json:"bidCard,omitempty"`
}

// Inbound message types.
const (
	TypeSignIn      = "signIn"
	TypeJoinSession = "joinSession"
	TypeReadyGame   = "readyGame"
	TypeBid         = "bid"
)

// Outbound message types.
const (
	TypeHello                 = "hello"
	TypeSignInResult          = "signInResult"
	TypeJoinSessionResult     = "joinSessionResult"
	TypeReadyGameResult       = "readyGameResult"
	TypeUpdatePlayers         = "updatePlayers"
	TypeStartGame             = "startGame"
	TypeStartTurn             = "startTurn"
	TypeUpdatePlayerBidStatus = "updatePlayerBidStatus"
	TypeBidResult             = "bidResult"
	TypeFinishTurn            = "finishTurn"
	TypeFinishGame            = "finishGame"
	TypeLeavePlayer           = "leavePlayer"
	TypeError                 = "error"
)

// ErrorCode is carried by error messages.
type ErrorCode int

const (
	ErrorInvalidMessage ErrorCode = 1
	ErrorServerBug      ErrorCode = 2
)

// BidResultCode answers a bid request. Negative values are failures.
type BidResultCode int

const (
	BidSuccess        BidResultCode = 0
	BidAlreadyBid     BidResultCode = -1
	BidInvalidCard    BidResultCode = -2
	BidInvalidTurnNum BidResultCode = -3
)

// PlayerInfo is a session member as shown in matchmaking messages.
type PlayerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Self bool   `json:"isSelf"`
}

// MyPlayer is the receiving player's full view of themselves.
type MyPlayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Cards      []int  `json:"cards"`
	PointCards []int  `json:"pointCards"`
	UsedCards  []int  `json:"usedCards"`
	BidCard    *int   `json:"bidCard"`
}

// OtherPlayer is an opponent's public view. BidCard is nil without a
// pending bid, 0 while the bid is hidden and the card once revealed.
type OtherPlayer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointCards []int  `json:"pointCards"`
	UsedCards  []int  `json:"usedCards"`
	BidCard    *int   `json:"bidCard"`
}

// WinnerCurrentTurn is present once every player has bid.
type WinnerCurrentTurn struct {
	IsDraw     bool   `json:"isDraw"`
	PlayerName string `json:"playerName"`
}

// GameInfo is a per-player snapshot of a game.
type GameInfo struct {
	MyPlayer           MyPlayer           `json:"myPlayer"`
	Players            []OtherPlayer      `json:"players"`
	TurnNum            int                `json:"turnNum"`
	PointCards         []int              `json:"pointCards"`
	OpenPointCardCount int                `json:"openPointCardCount"`
	IsBidCardOpen      bool               `json:"isBidCardOpen"`
	WinnerCurrentTurn  *WinnerCurrentTurn `json:"winnerCurrentTurn,omitempty"`
}

// SessionSummary describes the current session for the status endpoint.
type SessionSummary struct {
	Exists           bool            `json:"exists"`
	ID               string          `json:"id,omitempty"`
	AcceptingPlayers bool            `json:"acceptingPlayers"`
	InGame           bool            `json:"inGame"`
	TurnNum          int             `json:"turnNum,omitempty"`
	Players          []MemberSummary `json:"players"`
}

// MemberSummary is one session member in a SessionSummary.
type MemberSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

// PlayerStat aggregates a player's recorded games.
type PlayerStat struct {
	Name        string `json:"name"`
	TotalGames  int    `json:"totalGames"`
	TotalWins   int    `json:"totalWins"`
	TotalPoints int    `json:"totalPoints"`
}
