package hockey

import "time"

// Settings are the immutable table and rule constants for one session.
type Settings struct {
	Width        float64
	Height       float64
	PaddleRadius float64
	PuckRadius   float64
	GoalWidth    float64
	GoalHeight   float64
	WinningScore int

	// CountdownDuration applies to start, resume and goal countdowns alike.
	CountdownDuration time.Duration
}

// DefaultSettings returns the standard 1200x800 table.
func DefaultSettings() Settings {
	return Settings{
		Width:             1200,
		Height:            800,
		PaddleRadius:      35,
		PuckRadius:        20,
		GoalWidth:         20,
		GoalHeight:        200,
		WinningScore:      5,
		CountdownDuration: 3 * time.Second,
	}
}

// GoalTop is the upper y bound of the goal band.
func (s Settings) GoalTop() float64 {
	return (s.Height - s.GoalHeight) / 2
}

// GoalBottom is the lower y bound of the goal band.
func (s Settings) GoalBottom() float64 {
	return s.GoalTop() + s.GoalHeight
}
