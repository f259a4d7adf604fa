package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ashureev/kinematics-lab/internal/domain"
)

// repoFactories lets each behavioral test run against every driver.
func repoFactories(t *testing.T) map[string]func() Repository {
	t.Helper()
	return map[string]func() Repository{
		DriverMemory: func() Repository { return NewMemory() },
		DriverSQLite: func() Repository {
			s, err := NewSQLite(filepath.Join(t.TempDir(), "problems.db"))
			if err != nil {
				t.Fatalf("NewSQLite failed: %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestRepositoryPutGet(t *testing.T) {
	for name, factory := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()
			p := domain.NewProblem(7, 12, 3, time.Now())

			replaced, err := repo.PutProblem(ctx, p)
			if err != nil {
				t.Fatalf("PutProblem failed: %v", err)
			}
			if replaced {
				t.Error("first insert should not report a replacement")
			}

			got, err := repo.GetProblem(ctx, 7)
			if err != nil {
				t.Fatalf("GetProblem failed: %v", err)
			}
			if got == nil {
				t.Fatal("expected problem, got nil")
			}
			if got.Question != p.Question || got.Velocity != p.Velocity || got.Gravity != p.Gravity || got.Time != p.Time {
				t.Errorf("stored problem differs: got %+v, want %+v", got, p)
			}
			if len(got.Answers) != 1 || got.Answers[0] != p.Answers[0] {
				t.Errorf("expected answers %v, got %v", p.Answers, got.Answers)
			}
			if got.Units != domain.DefaultUnits() {
				t.Errorf("unexpected units %+v", got.Units)
			}
		})
	}
}

func TestRepositoryGetMissing(t *testing.T) {
	for name, factory := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			got, err := factory().GetProblem(context.Background(), 404)
			if err != nil {
				t.Fatalf("GetProblem failed: %v", err)
			}
			if got != nil {
				t.Errorf("expected nil for missing problem, got %+v", got)
			}
		})
	}
}

func TestRepositoryCollisionOverwrites(t *testing.T) {
	for name, factory := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()

			if _, err := repo.PutProblem(ctx, domain.NewProblem(5, 10, 1, time.Now())); err != nil {
				t.Fatalf("PutProblem failed: %v", err)
			}
			replaced, err := repo.PutProblem(ctx, domain.NewProblem(5, 20, 2, time.Now()))
			if err != nil {
				t.Fatalf("PutProblem failed: %v", err)
			}
			if !replaced {
				t.Error("expected collision to report a replacement")
			}

			got, err := repo.GetProblem(ctx, 5)
			if err != nil || got == nil {
				t.Fatalf("GetProblem failed: %v", err)
			}
			if got.Velocity.Y() != 20 {
				t.Errorf("expected later problem to win, got v0=%v", got.Velocity)
			}
			if n, _ := repo.Count(ctx); n != 1 {
				t.Errorf("expected 1 problem, got %d", n)
			}
		})
	}
}

func TestRepositoryDeleteExpired(t *testing.T) {
	for name, factory := range repoFactories(t) {
		t.Run(name, func(t *testing.T) {
			repo := factory()
			ctx := context.Background()
			now := time.Now()

			if _, err := repo.PutProblem(ctx, domain.NewProblem(1, 10, 1, now.Add(-3*time.Hour))); err != nil {
				t.Fatalf("PutProblem failed: %v", err)
			}
			if _, err := repo.PutProblem(ctx, domain.NewProblem(2, 10, 1, now)); err != nil {
				t.Fatalf("PutProblem failed: %v", err)
			}

			deleted, err := repo.DeleteExpired(ctx, time.Hour)
			if err != nil {
				t.Fatalf("DeleteExpired failed: %v", err)
			}
			if deleted != 1 {
				t.Errorf("expected 1 deleted, got %d", deleted)
			}
			if p, _ := repo.GetProblem(ctx, 1); p != nil {
				t.Error("expired problem still present")
			}
			if p, _ := repo.GetProblem(ctx, 2); p == nil {
				t.Error("live problem was deleted")
			}
		})
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()
	p := domain.NewProblem(3, 10, 1, time.Now())
	if _, err := repo.PutProblem(ctx, p); err != nil {
		t.Fatalf("PutProblem failed: %v", err)
	}

	p.Answers[0] = 1000
	got, _ := repo.GetProblem(ctx, 3)
	if got.Answers[0] == 1000 {
		t.Error("store aliases caller's problem")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 100; j++ {
				id := base*100 + j
				if _, err := repo.PutProblem(ctx, domain.NewProblem(id, 5, 1, time.Now())); err != nil {
					t.Errorf("PutProblem failed: %v", err)
					return
				}
				_, _ = repo.GetProblem(ctx, id)
			}
		}(int64(i))
	}
	wg.Wait()

	if n, _ := repo.Count(ctx); n != 800 {
		t.Errorf("expected 800 problems, got %d", n)
	}
}

func TestNewUnknownDriver(t *testing.T) {
	if _, err := New("postgres", ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	repo, err := New("", "")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := repo.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", repo)
	}
}
