package problem

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
)

// Mode selects how problems are generated and resolved for grading.
type Mode string

const (
	// ModeRandom draws velocity and time at random and stores each problem
	// so answers are graded against the problem the client saw.
	ModeRandom Mode = "random"

	// ModeExample always produces the fixed example problem and keeps no state.
	ModeExample Mode = "example"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeRandom || m == ModeExample
}

// Stateful reports whether problems must be stored for later lookup.
func (m Mode) Stateful() bool {
	return m == ModeRandom
}

const (
	DefaultMinValue = 1
	DefaultMaxValue = 67
	MaxID           = 100000

	ExampleVelocity = 8.0
	ExampleTime     = 4.0
)

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	Mode Mode
	// Min and Max bound the random velocity (m/s) and time (s), inclusive.
	Min int
	Max int
	// Seed fixes the random source. Zero seeds from crypto/rand.
	Seed int64
}

// Generator produces problems. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	rng  *rand.Rand
	mode Mode
	min  int
	max  int
	now  func() time.Time
}

// NewGenerator creates a generator from cfg.
func NewGenerator(cfg GeneratorConfig) (*Generator, error) {
	if cfg.Mode == "" {
		cfg.Mode = ModeRandom
	}
	if !cfg.Mode.Valid() {
		return nil, fmt.Errorf("unknown problem mode %q", cfg.Mode)
	}
	if cfg.Min == 0 && cfg.Max == 0 {
		cfg.Min, cfg.Max = DefaultMinValue, DefaultMaxValue
	}
	if cfg.Min < 1 || cfg.Max < cfg.Min {
		return nil, fmt.Errorf("invalid value range [%d, %d]", cfg.Min, cfg.Max)
	}

	seed := cfg.Seed
	if seed == 0 {
		var err error
		if seed, err = newSeed(); err != nil {
			return nil, err
		}
	}

	return &Generator{
		rng:  rand.New(rand.NewSource(seed)),
		mode: cfg.Mode,
		min:  cfg.Min,
		max:  cfg.Max,
		now:  time.Now,
	}, nil
}

// Mode returns the generation mode.
func (g *Generator) Mode() Mode {
	return g.mode
}

// Generate returns a new problem. The id is random in [1, MaxID] and is not
// guaranteed to be unique.
func (g *Generator) Generate() *domain.Problem {
	g.mu.Lock()
	id := g.rng.Int63n(MaxID) + 1
	v0, t := ExampleVelocity, ExampleTime
	if g.mode == ModeRandom {
		v0 = float64(g.intBetween(g.min, g.max))
		t = float64(g.intBetween(g.min, g.max))
	}
	g.mu.Unlock()

	return domain.NewProblem(id, v0, t, g.now())
}

// intBetween returns a uniform integer in [lo, hi]. Callers hold g.mu.
func (g *Generator) intBetween(lo, hi int) int {
	return g.rng.Intn(hi-lo+1) + lo
}

func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}
