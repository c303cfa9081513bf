package hockey

// Status is the coarse lifecycle phase of a session. Pausing is not a status:
// it is derived from the paused-player set while the status stays active.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusStarting Status = "starting"
	StatusActive   Status = "active"
	StatusGameOver Status = "game_over"
)

// CountdownType says why gameplay is currently frozen.
type CountdownType string

const (
	CountdownNone   CountdownType = ""
	CountdownStart  CountdownType = "start"
	CountdownResume CountdownType = "resume"
	CountdownGoal   CountdownType = "goal"
)

// WinnerDisconnected is the winner sentinel left behind for the remaining
// player when their opponent drops the connection.
const WinnerDisconnected = "opponent_disconnected"

// Puck is the free-moving disc.
type Puck struct {
	Pos Vec2
	Vel Vec2
}

// Paddle is a player-controlled disc clamped to its owner's table half.
type Paddle struct {
	ID  int
	Pos Vec2
}

// RestartRequest mirrors the restart negotiation on the wire.
type RestartRequest struct {
	Active    bool `json:"active"`
	Requester int  `json:"requester,omitempty"`
	Responder int  `json:"responder,omitempty"`
}

// State is the full snapshot broadcast to clients every frame. Field names and
// shapes are the wire contract: one JSON object per line, map keys are the
// player ids, winner is a player id, "opponent_disconnected", or null.
type State struct {
	Status         Status         `json:"status"`
	Winner         any            `json:"winner"`
	Countdown      int            `json:"countdown"`
	CountdownType  *string        `json:"countdown_type"`
	Puck           Vec2           `json:"puck"`
	Paddles        map[int]Vec2   `json:"paddles"`
	Scores         map[int]int    `json:"scores"`
	IsPaused       bool           `json:"is_paused"`
	PausedPlayers  []int          `json:"paused_players"`
	RestartRequest RestartRequest `json:"restart_request"`
}
