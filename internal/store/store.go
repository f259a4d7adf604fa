// Package store provides problem registry interfaces and implementations.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
)

// Repository defines the interface for the problem registry.
type Repository interface {
	// PutProblem inserts a problem, overwriting any problem with the same id.
	// It reports whether an existing problem was replaced.
	PutProblem(ctx context.Context, p *domain.Problem) (replaced bool, err error)

	// GetProblem retrieves a problem by id. It returns nil, nil when absent.
	GetProblem(ctx context.Context, id int64) (*domain.Problem, error)

	// DeleteExpired removes problems created more than ttl ago.
	DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error)

	// Count returns the number of stored problems.
	Count(ctx context.Context) (int64, error)

	// Ping verifies the registry is reachable.
	Ping(ctx context.Context) error

	// Close releases resources held by the registry.
	Close() error
}

// Driver names accepted by New.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// New opens the repository for the named driver.
func New(driver, dbPath string) (Repository, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		s, err := NewSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
