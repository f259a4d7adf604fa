package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
	"github.com/ashureev/kinematics-lab/internal/kinematics"
	"github.com/ashureev/kinematics-lab/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeMaxRetries    = 3
	writeRetryBaseWait = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // Serializes writers to avoid SQLITE_BUSY under load
	now     func() time.Time
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets the TTL sweeper run alongside request reads.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS problems (
		id INTEGER PRIMARY KEY,
		question TEXT NOT NULL,
		origin_json TEXT NOT NULL,
		velocity_json TEXT NOT NULL,
		gravity_json TEXT NOT NULL,
		time_s REAL NOT NULL,
		answers_json TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_problems_created ON problems(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PutProblem upserts a problem row.
func (s *SQLiteStore) PutProblem(ctx context.Context, p *domain.Problem) (bool, error) {
	origin, velocity, gravity, answers, err := encodeProblem(p)
	if err != nil {
		return false, err
	}

	var replaced bool
	err = s.withRetry(ctx, "put problem", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM problems WHERE id = ?)`, p.ID,
		).Scan(&replaced); err != nil {
			return fmt.Errorf("check existing problem: %w", err)
		}

		query := `
		INSERT INTO problems (id, question, origin_json, velocity_json, gravity_json, time_s, answers_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			question = excluded.question,
			origin_json = excluded.origin_json,
			velocity_json = excluded.velocity_json,
			gravity_json = excluded.gravity_json,
			time_s = excluded.time_s,
			answers_json = excluded.answers_json,
			created_at = excluded.created_at`
		if _, err := tx.ExecContext(ctx, query,
			p.ID, p.Question, origin, velocity, gravity, p.Time, answers, p.CreatedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("upsert problem: %w", err)
		}
		return tx.Commit()
	})
	return replaced, err
}

// GetProblem retrieves a problem by id.
func (s *SQLiteStore) GetProblem(ctx context.Context, id int64) (*domain.Problem, error) {
	query := `
		SELECT id, question, origin_json, velocity_json, gravity_json,
		       time_s, answers_json, created_at
		FROM problems WHERE id = ?`

	var p domain.Problem
	var origin, velocity, gravity, answers string
	var createdAt int64

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Question, &origin, &velocity, &gravity,
		&p.Time, &answers, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan problem row: %w", err)
	}

	if err := decodeVec(origin, &p.Origin); err != nil {
		return nil, err
	}
	if err := decodeVec(velocity, &p.Velocity); err != nil {
		return nil, err
	}
	if err := decodeVec(gravity, &p.Gravity); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(answers), &p.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	p.Units = domain.DefaultUnits()
	p.CreatedAt = time.UnixMilli(createdAt)

	return &p, nil
}

// DeleteExpired removes problems created more than ttl ago.
func (s *SQLiteStore) DeleteExpired(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	threshold := s.now().Add(-ttl).UnixMilli()

	var deleted int64
	err := s.withRetry(ctx, "delete expired problems", func() error {
		result, err := s.db.ExecContext(ctx, `DELETE FROM problems WHERE created_at < ?`, threshold)
		if err != nil {
			return fmt.Errorf("delete expired problems: %w", err)
		}
		deleted, err = result.RowsAffected()
		return err
	})
	return deleted, err
}

// Count returns the number of stored problems.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM problems`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count problems: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// withRetry runs fn under the write lock, retrying with exponential backoff
// on SQLite busy/locked errors.
func (s *SQLiteStore) withRetry(ctx context.Context, op string, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var err error
	for i := 0; i < writeMaxRetries; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) || i == writeMaxRetries-1 {
			break
		}

		delay := writeRetryBaseWait * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("SQLite busy, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func encodeProblem(p *domain.Problem) (origin, velocity, gravity, answers string, err error) {
	enc := func(v any) string {
		if err != nil {
			return ""
		}
		var b []byte
		b, err = json.Marshal(v)
		return string(b)
	}
	origin = enc(p.Origin)
	velocity = enc(p.Velocity)
	gravity = enc(p.Gravity)
	answers = enc(p.Answers)
	if err != nil {
		err = fmt.Errorf("encode problem: %w", err)
	}
	return origin, velocity, gravity, answers, err
}

func decodeVec(s string, v *kinematics.Vec3) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decode vector: %w", err)
	}
	return nil
}
