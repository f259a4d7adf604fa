package problem

import (
	"encoding/json"
	"math"

	"github.com/ashureev/kinematics-lab/internal/domain"
	"github.com/ashureev/kinematics-lab/internal/kinematics"
)

const (
	// QuestionDisplacement is the only gradable question type.
	QuestionDisplacement = "displacement"

	// DefaultTolerance is the absolute tolerance used when none is submitted.
	DefaultTolerance = 0.5
)

// CheckRequest is a submitted answer. Fields are kept raw so that
// number-like values can be parsed leniently.
type CheckRequest struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Type      json.RawMessage `json:"type,omitempty"`
	Value     json.RawMessage `json:"value,omitempty"`
	Tolerance json.RawMessage `json:"tolerance,omitempty"`
}

// ProblemEcho is the subset of problem parameters returned with a result.
type ProblemEcho struct {
	Origin   *kinematics.Vec3 `json:"r0,omitempty"`
	Velocity kinematics.Vec3  `json:"v0"`
	Gravity  any              `json:"gravity"`
	Time     float64          `json:"time"`
}

// CheckResult is the outcome of grading a submission.
type CheckResult struct {
	IsCorrect bool        `json:"is_correct"`
	Correct   float64     `json:"correct"`
	Problem   ProblemEcho `json:"problem"`
}

// answerKey maps each question type to its correct value for p.
func answerKey(p *domain.Problem) map[string]float64 {
	return map[string]float64{
		QuestionDisplacement: p.Displacement(),
	}
}

// Check grades value against p for the given question type. The answer is
// correct when |value - correct| <= tolerance.
func Check(p *domain.Problem, questionType string, value, tolerance float64, mode Mode) (*CheckResult, error) {
	correct, ok := answerKey(p)[questionType]
	if !ok {
		return nil, ErrInvalidQuestionType
	}
	return &CheckResult{
		IsCorrect: math.Abs(value-correct) <= tolerance,
		Correct:   correct,
		Problem:   echo(p, mode),
	}, nil
}

// Grade parses req and checks it against p. The value is validated before
// the question type, and the question type before the tolerance.
func Grade(p *domain.Problem, req CheckRequest, mode Mode, defaultTolerance float64) (*CheckResult, error) {
	value, err := ParseNumber(req.Value)
	if err != nil {
		return nil, err
	}

	questionType := parseQuestionType(req.Type)
	if _, ok := answerKey(p)[questionType]; !ok {
		return nil, ErrInvalidQuestionType
	}

	tolerance := defaultTolerance
	if !isAbsent(req.Tolerance) {
		if tolerance, err = ParseNumber(req.Tolerance); err != nil {
			return nil, ErrInvalidTolerance
		}
	}

	return Check(p, questionType, value, tolerance, mode)
}

// echo builds the parameter echo. Example mode returns the origin and the
// full gravity vector; random mode omits the origin and returns gravity as
// the scalar y component.
func echo(p *domain.Problem, mode Mode) ProblemEcho {
	if mode == ModeExample {
		origin := p.Origin
		return ProblemEcho{
			Origin:   &origin,
			Velocity: p.Velocity,
			Gravity:  p.Gravity,
			Time:     p.Time,
		}
	}
	return ProblemEcho{
		Velocity: p.Velocity,
		Gravity:  p.Gravity.Y(),
		Time:     p.Time,
	}
}
