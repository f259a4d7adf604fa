// Package domain contains core domain types for the kinematics lab.
package domain

import (
	"fmt"
	"time"

	"github.com/ashureev/kinematics-lab/internal/kinematics"
)

// Units describes the measurement units used in a problem.
type Units struct {
	Distance string `json:"distance"`
	Time     string `json:"time"`
	Velocity string `json:"velocity"`
}

// DefaultUnits returns SI units for distance, time and velocity.
func DefaultUnits() Units {
	return Units{Distance: "m", Time: "s", Velocity: "m/s"}
}

// Problem is a generated "rock thrown upward" word problem.
type Problem struct {
	ID       int64           `json:"id"`
	Question string          `json:"question"`
	Origin   kinematics.Vec3 `json:"r0"`
	Velocity kinematics.Vec3 `json:"v0"`
	Gravity  kinematics.Vec3 `json:"gravity"`
	Time     float64         `json:"time"`
	Units    Units           `json:"units"`
	// Answers holds the rounded displacement. Only serialized in debug views.
	Answers   []int64   `json:"answers,omitempty"`
	CreatedAt time.Time `json:"-"`
}

const questionTemplate = "A rock is thrown with an initial velocity of %.1fm/s upwards. " +
	"Determine the displacement after %.1fs. Round to the nearest whole."

// NewProblem builds a problem for a rock launched straight up from the origin
// at speed v0 and observed after t seconds.
func NewProblem(id int64, v0, t float64, createdAt time.Time) *Problem {
	p := &Problem{
		ID:        id,
		Question:  fmt.Sprintf(questionTemplate, v0, t),
		Velocity:  kinematics.Up(v0),
		Gravity:   kinematics.Gravity(),
		Time:      t,
		Units:     DefaultUnits(),
		CreatedAt: createdAt,
	}
	p.Answers = []int64{kinematics.Round(p.Displacement())}
	return p
}

// Displacement returns the vertical displacement computed from this
// problem's own origin, velocity, gravity and time.
func (p *Problem) Displacement() float64 {
	return kinematics.Displacement(p.Origin, p.Velocity, p.Gravity, p.Time)
}

// Public returns a copy safe to send to clients. Answers are kept only when
// debug is true.
func (p *Problem) Public(debug bool) *Problem {
	view := p.Clone()
	if !debug {
		view.Answers = nil
	}
	return view
}

// Clone returns a deep copy of the problem.
func (p *Problem) Clone() *Problem {
	c := *p
	if p.Answers != nil {
		c.Answers = append([]int64(nil), p.Answers...)
	}
	return &c
}

// Expired reports whether the problem is older than ttl at now.
// A non-positive ttl never expires.
func (p *Problem) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}
