package onboard

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "math"
)

// Pose is a position on the floor plane with a heading in radians, 0 along +X, counter clockwise positive.
type Pose struct {
	Position mgl64.Vec2
	Heading  float64
}

// Kinematics describes a differential drive base. Wheel inputs are signed
// fractions of WheelSpeed, -1 full reverse to 1 full forward.
type Kinematics struct {
	WheelBase  float64 // distance between the wheels
	WheelSpeed float64 // linear wheel speed at full drive, per second
}

// Velocity returns the body linear and angular velocity for the given wheel inputs.
func (k Kinematics) Velocity(left, right float64) (linear, angular float64) {
	vl := left * k.WheelSpeed
	vr := right * k.WheelSpeed

	linear = (vl + vr) / 2
	angular = (vr - vl) / k.WheelBase
	return
}

func (k Kinematics) Integrate(p Pose, left, right float64, dt time.Duration) Pose {
	linear, angular := k.Velocity(left, right)
	secs := dt.Seconds()

	// advance along the mid-step heading
	mid := p.Heading + angular*secs/2
	step := mgl64.Rotate2D(mid).Mul2x1(mgl64.Vec2{linear * secs, 0})

	return Pose{
		Position: p.Position.Add(step),
		Heading:  normaliseAngle(p.Heading + angular*secs),
	}
}

// BearingTo returns the angle of target relative to the pose heading and its distance.
// Positive bearings are to the left.
func BearingTo(p Pose, target mgl64.Vec2) (bearing, distance float64) {
	delta := target.Sub(p.Position)
	distance = delta.Len()
	if distance == 0 {
		return 0, 0
	}

	bearing = normaliseAngle(Atan2(delta.Y(), delta.X()) - p.Heading)
	return
}

func normaliseAngle(a float64) float64 {
	a = Mod(a+Pi, 2*Pi)
	if a < 0 {
		a += 2 * Pi
	}
	return a - Pi
}
