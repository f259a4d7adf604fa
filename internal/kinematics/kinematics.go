// Package kinematics provides constant-acceleration motion helpers.
package kinematics

import "math"

// StandardGravity is the magnitude of gravitational acceleration in m/s^2.
const StandardGravity = 9.8

// Vec3 is a 3-component vector encoded as a JSON array.
type Vec3 [3]float64

// X returns the x component.
func (v Vec3) X() float64 { return v[0] }

// Y returns the y component.
func (v Vec3) Y() float64 { return v[1] }

// Z returns the z component.
func (v Vec3) Z() float64 { return v[2] }

// Up returns a vector pointing along +y with the given magnitude.
func Up(magnitude float64) Vec3 {
	return Vec3{0, magnitude, 0}
}

// Gravity returns the downward gravitational acceleration vector.
func Gravity() Vec3 {
	return Vec3{0, -StandardGravity, 0}
}

// Displacement returns the vertical position after t seconds for a body
// starting at r0 with velocity v0 under constant acceleration g.
func Displacement(r0, v0, g Vec3, t float64) float64 {
	return r0.Y() + v0.Y()*t + 0.5*g.Y()*t*t
}

// Round rounds x to the nearest integer, ties to even.
func Round(x float64) int64 {
	return int64(math.RoundToEven(x))
}
