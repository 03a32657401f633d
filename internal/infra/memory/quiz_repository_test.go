package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"classdeck-quiz-service/internal/domain"
)

type countingLoader struct {
	mu      sync.Mutex
	loads   int
	quizzes map[string]domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

func TestQuizRepositoryCachesWithinTTL(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Title: "Cached"},
	}}
	repo := NewQuizRepository(loader, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		quiz, err := repo.GetQuiz(ctx, "quiz-1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if quiz.Title != "Cached" {
			t.Fatalf("unexpected quiz %+v", quiz)
		}
	}
	if loader.count() != 1 {
		t.Fatalf("expected a single backing load, got %d", loader.count())
	}
}

func TestQuizRepositoryReloadsAfterExpiry(t *testing.T) {
	loader := &countingLoader{quizzes: map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1", Title: "Reloaded"},
	}}
	repo := NewQuizRepository(loader, time.Minute)

	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	ctx := context.Background()
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get: %v", err)
	}

	// Jitter adds at most 10% to the TTL, so two minutes is past any expiry.
	now = now.Add(2 * time.Minute)
	if _, err := repo.GetQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if loader.count() != 2 {
		t.Fatalf("expected reload after expiry, got %d loads", loader.count())
	}
}

func TestQuizRepositoryPropagatesNotFound(t *testing.T) {
	repo := NewQuizRepository(&countingLoader{}, time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestStaticQuizLoader(t *testing.T) {
	loader := NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {ID: "quiz-1"},
	})
	if _, err := loader.LoadQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := loader.LoadQuiz(context.Background(), "quiz-2"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
