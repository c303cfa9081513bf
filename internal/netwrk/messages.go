package netwrk

// Wire protocol: newline-delimited UTF-8 JSON objects over a persistent TCP
// stream. Clients send small command objects; the server answers with an init
// message on accept, a full state snapshot every broadcast tick, or a single
// error line followed by a close.

// Client command types.
const (
	CmdUpdatePaddle   = "update_paddle"
	CmdPauseGame      = "pause_game"
	CmdResumeGame     = "resume_game"
	CmdRequestRestart = "request_restart"
	CmdRespondRestart = "respond_restart"
	CmdCancelRestart  = "cancel_restart_request"
	CmdLogin          = "login"
)

// Command is the envelope for every client-to-server message. Unused fields
// stay at their zero value for a given type.
type Command struct {
	Type   string    `json:"type"`
	Pos    []float64 `json:"pos,omitempty"`
	Accept bool      `json:"accept,omitempty"`
	Name   string    `json:"name,omitempty"`
	Token  string    `json:"token,omitempty"`
}

// InitMessage is the first line a freshly accepted client receives.
type InitMessage struct {
	Type     string `json:"type"`
	PlayerID int    `json:"player_id"`
}

// ErrorMessage precedes an immediate close on rejection.
type ErrorMessage struct {
	Error string `json:"error"`
}

// Identity is the optional login payload used for post-game reporting.
type Identity struct {
	Name  string
	Token string
}
