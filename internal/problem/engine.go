// Package problem generates kinematics word problems and grades answers.
package problem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
	"github.com/ashureev/kinematics-lab/internal/metrics"
	"github.com/ashureev/kinematics-lab/internal/store"
)

// EngineConfig configures an Engine.
type EngineConfig struct {
	DefaultTolerance float64
	// TTL bounds how long stored problems can be graded. Zero disables expiry.
	TTL     time.Duration
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Engine generates, stores and grades problems. It is shared by every
// transport.
type Engine struct {
	gen              *Generator
	repo             store.Repository
	defaultTolerance float64
	ttl              time.Duration
	metrics          *metrics.Recorder
	logger           *slog.Logger
	now              func() time.Time
}

// NewEngine creates an engine. repo may be nil in example mode.
func NewEngine(gen *Generator, repo store.Repository, cfg EngineConfig) (*Engine, error) {
	if gen == nil {
		return nil, errors.New("problem: nil generator")
	}
	if gen.Mode().Stateful() && repo == nil {
		return nil, fmt.Errorf("problem: mode %q requires a repository", gen.Mode())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		gen:              gen,
		repo:             repo,
		defaultTolerance: cfg.DefaultTolerance,
		ttl:              cfg.TTL,
		metrics:          cfg.Metrics,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// Mode returns the generation mode.
func (e *Engine) Mode() Mode {
	return e.gen.Mode()
}

// DefaultTolerance returns the tolerance used when none is submitted.
func (e *Engine) DefaultTolerance() float64 {
	return e.defaultTolerance
}

// NewProblem generates a problem and, in stateful mode, registers it.
func (e *Engine) NewProblem(ctx context.Context) (*domain.Problem, error) {
	p := e.gen.Generate()

	if e.Mode().Stateful() {
		replaced, err := e.repo.PutProblem(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("store problem %d: %w", p.ID, err)
		}
		if replaced {
			e.logger.Debug("Problem id collision, previous problem overwritten", "problem_id", p.ID)
		}
	}

	e.metrics.ProblemGenerated(string(e.Mode()))
	return p, nil
}

// Lookup returns the live problem registered under id.
func (e *Engine) Lookup(ctx context.Context, id int64) (*domain.Problem, error) {
	if e.repo == nil {
		return nil, ErrNotFound
	}
	p, err := e.repo.GetProblem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get problem %d: %w", id, err)
	}
	if p == nil || p.Expired(e.ttl, e.now()) {
		return nil, ErrNotFound
	}
	return p, nil
}

// Resolve finds the problem a submission refers to. Stateful mode looks up
// req.ID; example mode rebuilds the fixed example problem.
func (e *Engine) Resolve(ctx context.Context, req CheckRequest) (*domain.Problem, error) {
	if !e.Mode().Stateful() {
		return e.gen.Generate(), nil
	}
	id, err := ParseID(req.ID)
	if err != nil {
		return nil, err
	}
	return e.Lookup(ctx, id)
}

// Grade checks req against p using the engine's mode and default tolerance.
func (e *Engine) Grade(p *domain.Problem, req CheckRequest) (*CheckResult, error) {
	result, err := Grade(p, req, e.Mode(), e.defaultTolerance)
	e.recordOutcome(result, err)
	return result, err
}

// CheckAnswer resolves the referenced problem and grades the submission.
func (e *Engine) CheckAnswer(ctx context.Context, req CheckRequest) (*CheckResult, error) {
	p, err := e.Resolve(ctx, req)
	if err != nil {
		e.recordOutcome(nil, err)
		return nil, err
	}
	return e.Grade(p, req)
}

func (e *Engine) recordOutcome(result *CheckResult, err error) {
	switch {
	case err != nil:
		e.metrics.CheckGraded(metrics.OutcomeRejected)
	case result.IsCorrect:
		e.metrics.CheckGraded(metrics.OutcomeCorrect)
	default:
		e.metrics.CheckGraded(metrics.OutcomeIncorrect)
	}
}
