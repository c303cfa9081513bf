package hockey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewSource(1))
}

func TestApplyFriction(t *testing.T) {
	vel := ApplyFriction(Vec2{10, -4})
	assert.InDelta(t, 10*FrictionCoeff, vel.X, 1e-9)
	assert.InDelta(t, -4*FrictionCoeff, vel.Y, 1e-9)
}

func TestIntegrate(t *testing.T) {
	pos := Integrate(Vec2{100, 200}, Vec2{3, -5})
	assert.Equal(t, Vec2{103, 195}, pos)
}

func TestClampVelocity(t *testing.T) {
	tests := []struct {
		name      string
		vel       Vec2
		wantSpeed float64
	}{
		{"zero stays zero", Vec2{}, 0},
		{"slow scaled up to minimum", Vec2{0.3, 0.4}, MinPuckSpeed},
		{"in range unchanged", Vec2{3, 4}, 5},
		{"fast scaled down to maximum", Vec2{30, 40}, MaxPuckSpeed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampVelocity(tt.vel)
			assert.InDelta(t, tt.wantSpeed, got.Len(), 1e-9)
			if tt.vel.Len() > 0 {
				// Direction is preserved.
				assert.InDelta(t, tt.vel.X/tt.vel.Len(), got.X/got.Len(), 1e-9)
				assert.InDelta(t, tt.vel.Y/tt.vel.Len(), got.Y/got.Len(), 1e-9)
			}
		})
	}
}

func TestWallCollision(t *testing.T) {
	const height, radius = 800.0, 20.0

	pos, vel := WallCollision(Vec2{100, 10}, Vec2{2, -4}, radius, height)
	assert.Equal(t, radius, pos.Y)
	assert.InDelta(t, 4*WallRestitution, vel.Y, 1e-9)

	pos, vel = WallCollision(Vec2{100, 795}, Vec2{2, 4}, radius, height)
	assert.Equal(t, height-radius, pos.Y)
	assert.InDelta(t, -4*WallRestitution, vel.Y, 1e-9)

	pos, vel = WallCollision(Vec2{100, 400}, Vec2{2, 4}, radius, height)
	assert.Equal(t, Vec2{100, 400}, pos)
	assert.Equal(t, Vec2{2, 4}, vel)
}

func TestPaddleCollisionNoContact(t *testing.T) {
	pos, vel := PaddleCollision(Vec2{500, 400}, Vec2{-5, 0}, Vec2{100, 400}, Vec2{}, 20, 35, true, testRand())
	assert.Equal(t, Vec2{500, 400}, pos)
	assert.Equal(t, Vec2{-5, 0}, vel)
}

func TestPaddleCollisionReflects(t *testing.T) {
	paddle := Vec2{100, 400}
	puck := Vec2{140, 400} // overlapping by 15

	pos, vel := PaddleCollision(puck, Vec2{-5, 0}, paddle, Vec2{}, 20, 35, true, testRand())

	// Pushed out to exactly touching.
	require.InDelta(t, 55, pos.Sub(paddle).Len(), 1e-9)
	// Reflected away from the paddle and boosted; the angle jitter does not
	// change the speed.
	assert.Greater(t, vel.X, 0.0)
	assert.InDelta(t, 5*energyBoost, vel.Len(), 1e-9)
}

func TestPaddleCollisionSeparatingPuckKeepsVelocity(t *testing.T) {
	paddle := Vec2{100, 400}
	puck := Vec2{140, 400}

	pos, vel := PaddleCollision(puck, Vec2{5, 0}, paddle, Vec2{}, 20, 35, true, testRand())

	require.InDelta(t, 55, pos.Sub(paddle).Len(), 1e-9)
	assert.Equal(t, Vec2{5, 0}, vel)
}

func TestPaddleCollisionMomentumTransfer(t *testing.T) {
	paddle := Vec2{100, 400}
	puck := Vec2{140, 400}

	_, still := PaddleCollision(puck, Vec2{-5, 0}, paddle, Vec2{}, 20, 35, true, testRand())
	_, moving := PaddleCollision(puck, Vec2{-5, 0}, paddle, Vec2{10, 0}, 20, 35, true, testRand())

	// A fast paddle adds its own momentum plus the speed bonus.
	assert.Greater(t, moving.Len(), still.Len())
	assert.Greater(t, moving.Len(), 10.0)
}

func TestPaddleCollisionConcentricFallback(t *testing.T) {
	paddle := Vec2{100, 400}

	pos, vel := PaddleCollision(paddle, Vec2{-3, 0}, paddle, Vec2{}, 20, 35, true, testRand())
	assert.InDelta(t, paddle.X+55, pos.X, 1e-9)
	assert.Greater(t, vel.X, 0.0)

	pos, vel = PaddleCollision(paddle, Vec2{3, 0}, paddle, Vec2{}, 20, 35, false, testRand())
	assert.InDelta(t, paddle.X-55, pos.X, 1e-9)
	assert.Less(t, vel.X, 0.0)
}
