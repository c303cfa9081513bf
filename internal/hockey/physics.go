package hockey

import (
	"math"

	"golang.org/x/exp/rand"
)

// Physics tuning. Friction and the paddle momentum transfer give the puck
// the "power shot" feel: a fast-moving paddle launches the puck harder.
const (
	FrictionCoeff   = 0.998
	MinPuckSpeed    = 1.0
	MaxPuckSpeed    = 20.0
	WallRestitution = 0.95

	momentumFactor  = 0.4
	energyBoost     = 1.1
	speedBonusRate  = 0.02
	speedBonusCap   = 0.3
	angleJitter     = 0.05
)

// Vec2 is a position or velocity on the table plane.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Scale returns v * k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{v.X * k, v.Y * k}
}

// Len returns the magnitude of v.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Integrate advances pos by vel for one tick.
func Integrate(pos, vel Vec2) Vec2 {
	return pos.Add(vel)
}

// ApplyFriction scales vel down by the friction coefficient.
func ApplyFriction(vel Vec2) Vec2 {
	return vel.Scale(FrictionCoeff)
}

// ClampVelocity rescales vel onto the [MinPuckSpeed, MaxPuckSpeed] magnitude
// range, preserving direction. A zero vector is returned unchanged so a
// deliberately frozen puck stays frozen.
func ClampVelocity(vel Vec2) Vec2 {
	speed := vel.Len()
	if speed > MaxPuckSpeed {
		return vel.Scale(MaxPuckSpeed / speed)
	}
	if speed > 0 && speed < MinPuckSpeed {
		return vel.Scale(MinPuckSpeed / speed)
	}
	return vel
}

// WallCollision bounces the puck off the top and bottom table edges. The puck
// is clamped back inside the table and the normal velocity component is
// inverted scaled by WallRestitution.
func WallCollision(pos, vel Vec2, radius, height float64) (Vec2, Vec2) {
	if pos.Y <= radius {
		pos.Y = radius
		vel.Y = math.Abs(vel.Y) * WallRestitution
	} else if pos.Y >= height-radius {
		pos.Y = height - radius
		vel.Y = -math.Abs(vel.Y) * WallRestitution
	}
	return pos, vel
}

// PaddleCollision resolves a circle-circle collision between the puck and one
// paddle. On overlap the puck is pushed out along the contact normal; when it
// is moving into the paddle its velocity is reflected about the normal, gets a
// small random angle perturbation so rallies don't settle into a straight
// back-and-forth, picks up a fraction of the paddle's own velocity, and is
// boosted by a fixed energy multiplier plus a capped speed-dependent bonus.
// leftSide tells which half the paddle defends; it decides the fallback normal
// for the degenerate exactly-concentric contact.
func PaddleCollision(puckPos, puckVel, paddlePos, paddleVel Vec2, puckRadius, paddleRadius float64, leftSide bool, rng *rand.Rand) (Vec2, Vec2) {
	delta := puckPos.Sub(paddlePos)
	dist := delta.Len()
	if dist >= puckRadius+paddleRadius {
		return puckPos, puckVel
	}

	var normal Vec2
	if dist > 0 {
		normal = delta.Scale(1 / dist)
	} else if leftSide {
		normal = Vec2{1, 0}
	} else {
		normal = Vec2{-1, 0}
	}

	overlap := (puckRadius + paddleRadius) - dist
	puckPos = puckPos.Add(normal.Scale(overlap))

	dot := puckVel.X*normal.X + puckVel.Y*normal.Y
	if dot >= 0 {
		// Already separating.
		return puckPos, puckVel
	}

	puckVel = puckVel.Sub(normal.Scale(2 * dot))

	jitter := (rng.Float64() - 0.5) * angleJitter
	speed := puckVel.Len()
	angle := math.Atan2(puckVel.Y, puckVel.X) + jitter
	puckVel = Vec2{speed * math.Cos(angle), speed * math.Sin(angle)}

	puckVel = puckVel.Add(paddleVel.Scale(momentumFactor))
	puckVel = puckVel.Scale(energyBoost)

	bonus := math.Min(paddleVel.Len()*speedBonusRate, speedBonusCap)
	puckVel = puckVel.Scale(1 + bonus)

	return puckPos, puckVel
}
