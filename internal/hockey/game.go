package hockey

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Initial paddle distance from the player's own goal line.
const paddleStartInset = 100

// Serve speed of the puck out of a goal reset.
const serveSpeed = 5

// RestartOutcome is the result of answering a restart request.
type RestartOutcome int

const (
	RestartInvalid RestartOutcome = iota
	RestartAccepted
	RestartRejected
)

// Game is the authoritative state of one two-player session: puck, paddles,
// scores, and the countdown / pause / restart sub-state machines. It is not
// safe for concurrent use; the session layer serializes all access through
// one lock.
type Game struct {
	settings Settings
	clock    clockwork.Clock
	rng      *rand.Rand

	status Status
	winner any
	scores map[int]int

	puck    Puck
	paddles map[int]*Paddle

	countdown         int
	countdownType     CountdownType
	countdownDeadline time.Time

	pausedPlayers map[int]struct{}

	restartActive    bool
	restartRequester int
}

// NewGame creates a fresh game in the waiting state.
func NewGame(settings Settings, clock clockwork.Clock) *Game {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	g := &Game{
		settings: settings,
		clock:    clock,
		rng:      rand.New(rand.NewSource(uint64(clock.Now().UnixNano()))),
	}
	g.Reset()
	return g
}

// Reset puts every piece of state back to a fresh waiting game. Settings,
// clock and rng survive the reset.
func (g *Game) Reset() {
	s := g.settings
	g.status = StatusWaiting
	g.winner = nil
	g.scores = map[int]int{1: 0, 2: 0}
	g.puck = Puck{Pos: Vec2{s.Width / 2, s.Height / 2}}
	g.paddles = map[int]*Paddle{
		1: {ID: 1, Pos: Vec2{paddleStartInset, s.Height / 2}},
		2: {ID: 2, Pos: Vec2{s.Width - paddleStartInset, s.Height / 2}},
	}
	g.countdown = 0
	g.countdownType = CountdownNone
	g.countdownDeadline = time.Time{}
	g.pausedPlayers = make(map[int]struct{})
	g.restartActive = false
	g.restartRequester = 0
}

// Update advances the session by one physics tick. Paddle velocities are the
// per-tick position deltas computed by the session layer; they feed the
// momentum transfer on paddle hits. During any countdown, while any player
// holds a pause, and outside active status the puck is frozen.
func (g *Game) Update(p1Vel, p2Vel Vec2) {
	if !g.countdownDeadline.IsZero() {
		remaining := g.countdownDeadline.Sub(g.clock.Now())
		if remaining > 0 {
			g.countdown = int(remaining.Seconds()) + 1
			return
		}
		g.countdown = 0
		g.countdownDeadline = time.Time{}
		if g.countdownType == CountdownStart {
			log.Info().Msg("start countdown finished, game active")
			g.status = StatusActive
			// Kickoff: serve toward a random side so the opening puck is live.
			g.serve(float64(g.rng.Intn(2)*2 - 1))
		}
		g.countdownType = CountdownNone
	}

	if len(g.pausedPlayers) > 0 {
		return
	}
	if g.status != StatusActive {
		return
	}

	s := g.settings
	g.puck.Vel = ApplyFriction(g.puck.Vel)
	g.puck.Pos = Integrate(g.puck.Pos, g.puck.Vel)
	g.puck.Pos, g.puck.Vel = WallCollision(g.puck.Pos, g.puck.Vel, s.PuckRadius, s.Height)
	g.puck.Pos, g.puck.Vel = PaddleCollision(g.puck.Pos, g.puck.Vel,
		g.paddles[1].Pos, p1Vel, s.PuckRadius, s.PaddleRadius, true, g.rng)
	g.puck.Pos, g.puck.Vel = PaddleCollision(g.puck.Pos, g.puck.Vel,
		g.paddles[2].Pos, p2Vel, s.PuckRadius, s.PaddleRadius, false, g.rng)
	g.puck.Vel = ClampVelocity(g.puck.Vel)
	g.checkGoals()
}

// checkGoals scores a goal when the puck's leading edge crosses a goal line
// inside the goal band; crossings outside the band bounce like a wall.
func (g *Game) checkGoals() {
	s := g.settings
	inBand := g.puck.Pos.Y > s.GoalTop() && g.puck.Pos.Y < s.GoalBottom()
	switch {
	case g.puck.Pos.X-s.PuckRadius <= s.GoalWidth && inBand:
		g.scoreGoal(2)
	case g.puck.Pos.X+s.PuckRadius >= s.Width-s.GoalWidth && inBand:
		g.scoreGoal(1)
	case g.puck.Pos.X-s.PuckRadius <= 0:
		g.puck.Pos.X = s.PuckRadius
		g.puck.Vel.X = abs(g.puck.Vel.X) * WallRestitution
	case g.puck.Pos.X+s.PuckRadius >= s.Width:
		g.puck.Pos.X = s.Width - s.PuckRadius
		g.puck.Vel.X = -abs(g.puck.Vel.X) * WallRestitution
	}
}

func (g *Game) scoreGoal(playerID int) {
	g.scores[playerID]++
	log.Info().
		Int("player", playerID).
		Int("score1", g.scores[1]).
		Int("score2", g.scores[2]).
		Msg("goal scored")

	if g.scores[playerID] >= g.settings.WinningScore {
		g.status = StatusGameOver
		g.winner = playerID
		g.puck.Vel = Vec2{}
		log.Info().Int("player", playerID).Msg("game over")
		return
	}

	// Serve toward the player who conceded.
	direction := 1.0
	if playerID == 2 {
		direction = -1.0
	}
	g.serve(direction)
	g.startCountdown(CountdownGoal)
}

// serve recenters the puck and launches it along the given x direction with a
// random vertical component.
func (g *Game) serve(direction float64) {
	g.puck.Pos = Vec2{g.settings.Width / 2, g.settings.Height / 2}
	g.puck.Vel = Vec2{serveSpeed * direction, g.rng.Float64()*10 - 5}
}

func (g *Game) startCountdown(t CountdownType) {
	g.countdownType = t
	g.countdownDeadline = g.clock.Now().Add(g.settings.CountdownDuration)
	g.countdown = int(g.settings.CountdownDuration.Seconds())
	log.Info().Str("type", string(t)).Msg("countdown started")
}

// StartGame moves a waiting game into the starting phase with a start
// countdown. Returns false outside the waiting state.
func (g *Game) StartGame() bool {
	if g.status != StatusWaiting {
		return false
	}
	g.status = StatusStarting
	g.startCountdown(CountdownStart)
	return true
}

// Pause adds the player to the paused set. Rejected while a restart
// negotiation is pending, during a resume countdown, and outside
// active/starting play.
func (g *Game) Pause(playerID int) bool {
	if g.restartActive {
		log.Info().Int("player", playerID).Msg("pause rejected, restart request pending")
		return false
	}
	if g.status != StatusActive && g.status != StatusStarting {
		return false
	}
	if !g.countdownDeadline.IsZero() && g.countdownType == CountdownResume {
		return false
	}
	if _, ok := g.pausedPlayers[playerID]; ok {
		return false
	}
	g.pausedPlayers[playerID] = struct{}{}
	log.Info().Int("player", playerID).Msg("player paused the game")
	return true
}

// Resume removes the player from the paused set; when the set empties a
// resume countdown begins so play does not snap back instantly.
func (g *Game) Resume(playerID int) bool {
	if _, ok := g.pausedPlayers[playerID]; !ok {
		return false
	}
	delete(g.pausedPlayers, playerID)
	log.Info().Int("player", playerID).Msg("player resumed the game")
	if len(g.pausedPlayers) == 0 {
		g.startCountdown(CountdownResume)
	}
	return true
}

// IsPaused reports whether any player currently holds a pause.
func (g *Game) IsPaused() bool {
	return len(g.pausedPlayers) > 0
}

// RequestRestart opens a restart negotiation. Only one may be in flight.
func (g *Game) RequestRestart(playerID int) bool {
	if g.restartActive {
		return false
	}
	g.restartActive = true
	g.restartRequester = playerID
	log.Info().Int("player", playerID).Msg("restart requested")
	return true
}

// RespondRestart answers an open negotiation. Only the non-requester may
// answer. Accepting resets the whole game; rejecting clears the negotiation
// and auto-resumes so the session is never left frozen.
func (g *Game) RespondRestart(playerID int, accept bool) RestartOutcome {
	if !g.restartActive || g.restartRequester == 0 || playerID == g.restartRequester {
		return RestartInvalid
	}
	g.clearRestart()
	if accept {
		log.Info().Int("player", playerID).Msg("restart accepted")
		g.Reset()
		return RestartAccepted
	}
	log.Info().Int("player", playerID).Msg("restart rejected")
	g.autoResume()
	return RestartRejected
}

// CancelRestart withdraws the caller's own pending request.
func (g *Game) CancelRestart(playerID int) bool {
	if !g.restartActive || playerID != g.restartRequester {
		return false
	}
	log.Info().Int("player", playerID).Msg("restart request cancelled")
	g.clearRestart()
	g.autoResume()
	return true
}

// RequesterDisconnected cancels a pending negotiation when its requester
// drops, identical to an explicit cancel.
func (g *Game) RequesterDisconnected(playerID int) bool {
	if !g.restartActive || g.restartRequester != playerID {
		return false
	}
	log.Info().Int("player", playerID).Msg("restart request cancelled, requester disconnected")
	g.clearRestart()
	g.autoResume()
	return true
}

func (g *Game) clearRestart() {
	g.restartActive = false
	g.restartRequester = 0
}

// autoResume releases every pause after a restart negotiation ends without a
// reset. The resume countdown only runs when someone was actually paused.
func (g *Game) autoResume() {
	if len(g.pausedPlayers) == 0 {
		return
	}
	g.pausedPlayers = make(map[int]struct{})
	g.startCountdown(CountdownResume)
	log.Info().Msg("cleared pause state, resume countdown running")
}

// ClearPlayerPause drops a disconnecting player's pause without triggering a
// resume countdown; the disconnect transition overrides it anyway.
func (g *Game) ClearPlayerPause(playerID int) {
	delete(g.pausedPlayers, playerID)
}

// OpponentLeft parks the session for the remaining player: back to waiting,
// countdown cancelled, winner set to the disconnect sentinel.
func (g *Game) OpponentLeft() {
	g.status = StatusWaiting
	g.winner = WinnerDisconnected
	g.countdown = 0
	g.countdownType = CountdownNone
	g.countdownDeadline = time.Time{}
}

// UpdatePaddle applies a player position command, clamped so player 1 stays in
// the left half and player 2 in the right half, both inside the vertical
// bounds. Input is rejected while paused or during a resume countdown; start
// and goal countdowns still allow repositioning.
func (g *Game) UpdatePaddle(playerID int, x, y float64) bool {
	if g.IsPaused() {
		return false
	}
	if !g.countdownDeadline.IsZero() && g.countdownType == CountdownResume {
		return false
	}
	p, ok := g.paddles[playerID]
	if !ok {
		return false
	}
	s := g.settings
	p.Pos.Y = clamp(y, s.PaddleRadius, s.Height-s.PaddleRadius)
	if playerID == 1 {
		p.Pos.X = clamp(x, s.PaddleRadius, s.Width/2-s.PaddleRadius)
	} else {
		p.Pos.X = clamp(x, s.Width/2+s.PaddleRadius, s.Width-s.PaddleRadius)
	}
	return true
}

// Status returns the current lifecycle phase.
func (g *Game) Status() Status {
	return g.status
}

// Winner returns the winning player id, WinnerDisconnected, or nil.
func (g *Game) Winner() any {
	return g.winner
}

// Scores returns a copy of the score table.
func (g *Game) Scores() map[int]int {
	return map[int]int{1: g.scores[1], 2: g.scores[2]}
}

// PaddlePos returns the current position of one paddle.
func (g *Game) PaddlePos(playerID int) Vec2 {
	return g.paddles[playerID].Pos
}

// PuckState returns the puck position and velocity.
func (g *Game) PuckState() Puck {
	return g.puck
}

// Snapshot builds the wire-shape state object broadcast to clients.
func (g *Game) Snapshot() State {
	paused := make([]int, 0, len(g.pausedPlayers))
	for pid := range g.pausedPlayers {
		paused = append(paused, pid)
	}
	sort.Ints(paused)

	var ct *string
	if g.countdownType != CountdownNone {
		v := string(g.countdownType)
		ct = &v
	}

	rr := RestartRequest{Active: g.restartActive}
	if g.restartActive && g.restartRequester != 0 {
		rr.Requester = g.restartRequester
		rr.Responder = 3 - g.restartRequester
	}

	return State{
		Status:        g.status,
		Winner:        g.winner,
		Countdown:     g.countdown,
		CountdownType: ct,
		Puck:          g.puck.Pos,
		Paddles: map[int]Vec2{
			1: g.paddles[1].Pos,
			2: g.paddles[2].Pos,
		},
		Scores:         g.Scores(),
		IsPaused:       g.IsPaused(),
		PausedPlayers:  paused,
		RestartRequest: rr,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
