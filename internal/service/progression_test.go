package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"learning-service/internal/models"
)

const testAdminEmail = "admin@example.com"

func newTestProgression(store ProgressStore, sink EventSink, today string) *ProgressionService {
	svc := NewProgressionService(store, sink, zap.NewNop(), testAdminEmail, 5)
	day, err := time.Parse(dateLayout, today)
	if err != nil {
		panic(err)
	}
	svc.now = func() time.Time { return day }
	return svc
}

func seedProgress(store *fakeProgressStore, rec *models.UserProgress) {
	_ = store.Create(context.Background(), rec)
}

func TestLoadOrCreateNewUser(t *testing.T) {
	store := newFakeProgressStore()
	sink := &fakeEventSink{}
	svc := newTestProgression(store, sink, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if rec.Coins != 5 {
		t.Errorf("Expected 5 coins for a new user, got %d", rec.Coins)
	}
	if rec.Streak != 1 {
		t.Errorf("Expected streak 1 for a new user, got %d", rec.Streak)
	}
	if rec.LastLoginDate != "2024-01-10" {
		t.Errorf("Expected last login 2024-01-10, got %s", rec.LastLoginDate)
	}
	if rec.IsAdmin {
		t.Error("Expected non-admin for regular email")
	}
	if sink.count("user.registered") != 1 {
		t.Errorf("Expected one user.registered event, got %d", sink.count("user.registered"))
	}
}

func TestLoadOrCreateAdminFlag(t *testing.T) {
	store := newFakeProgressStore()
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", testAdminEmail, "Admin")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if !rec.IsAdmin {
		t.Error("Expected admin flag for configured admin email")
	}
	if !rec.Balance().Unlimited {
		t.Error("Expected unlimited balance for admin")
	}
}

func TestLoadOrCreatePromotesExistingUser(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            testAdminEmail,
		Coins:            2,
		CompletedLessons: []string{},
		Streak:           3,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", testAdminEmail, "Admin")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if !rec.IsAdmin {
		t.Error("Expected existing account to be promoted to admin")
	}

	stored, _ := store.Find(context.Background(), "u1")
	if !stored.IsAdmin {
		t.Error("Expected promotion to be persisted")
	}
}

func TestDailyResetContinuesStreak(t *testing.T) {
	store := newFakeProgressStore()
	sink := &fakeEventSink{}
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            0,
		CompletedLessons: []string{},
		Streak:           3,
		LastLoginDate:    "2024-01-09",
	})
	svc := newTestProgression(store, sink, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if rec.Streak != 4 {
		t.Errorf("Expected streak 4 after consecutive-day login, got %d", rec.Streak)
	}
	if rec.Coins != 5 {
		t.Errorf("Expected coins replenished to 5, got %d", rec.Coins)
	}
	if rec.LastLoginDate != "2024-01-10" {
		t.Errorf("Expected last login moved to 2024-01-10, got %s", rec.LastLoginDate)
	}
	if sink.count("streak.extended") != 1 {
		t.Errorf("Expected one streak.extended event, got %d", sink.count("streak.extended"))
	}
}

func TestDailyResetBreaksStreak(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            1,
		CompletedLessons: []string{},
		Streak:           7,
		LastLoginDate:    "2024-01-05",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if rec.Streak != 1 {
		t.Errorf("Expected streak reset to 1 after a gap, got %d", rec.Streak)
	}
	if rec.Coins != 5 {
		t.Errorf("Expected coins replenished to 5, got %d", rec.Coins)
	}
}

func TestDailyResetSameDayNoop(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            2,
		CompletedLessons: []string{},
		Streak:           3,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}

	if rec.Coins != 2 {
		t.Errorf("Expected same-day login to keep 2 coins, got %d", rec.Coins)
	}
	if rec.Streak != 3 {
		t.Errorf("Expected same-day login to keep streak 3, got %d", rec.Streak)
	}
}

func TestDailyResetSkippedForAdmin(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            testAdminEmail,
		IsAdmin:          true,
		Coins:            0,
		CompletedLessons: []string{},
		Streak:           2,
		LastLoginDate:    "2024-01-01",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	rec, err := svc.LoadOrCreate(context.Background(), "u1", testAdminEmail, "Admin")
	if err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if rec.LastLoginDate != "2024-01-01" {
		t.Errorf("Expected admin record untouched by daily reset, got last login %s", rec.LastLoginDate)
	}
}

func TestCompleteLessonChargesOneCoin(t *testing.T) {
	store := newFakeProgressStore()
	sink := &fakeEventSink{}
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            5,
		CompletedLessons: []string{},
		Streak:           1,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, sink, "2024-01-10")

	outcome, err := svc.CompleteLesson(context.Background(), "u1", "python-intro")
	if err != nil {
		t.Fatalf("CompleteLesson failed: %v", err)
	}
	if outcome != LessonCompleted {
		t.Errorf("Expected LessonCompleted, got %v", outcome)
	}

	rec, _ := store.Find(context.Background(), "u1")
	if rec.Coins != 4 {
		t.Errorf("Expected 4 coins after completion, got %d", rec.Coins)
	}
	if !rec.HasCompleted("python-intro") {
		t.Error("Expected completion key to be recorded")
	}
	if sink.count("lesson.completed") != 1 {
		t.Errorf("Expected one lesson.completed event, got %d", sink.count("lesson.completed"))
	}
}

func TestCompleteLessonIdempotent(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            5,
		CompletedLessons: []string{"python-intro"},
		Streak:           1,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	outcome, err := svc.CompleteLesson(context.Background(), "u1", "python-intro")
	if err != nil {
		t.Fatalf("CompleteLesson failed: %v", err)
	}
	if outcome != LessonAlreadyCompleted {
		t.Errorf("Expected LessonAlreadyCompleted, got %v", outcome)
	}

	rec, _ := store.Find(context.Background(), "u1")
	if rec.Coins != 5 {
		t.Errorf("Expected repeat completion to charge nothing, got %d coins", rec.Coins)
	}
	if len(rec.CompletedLessons) != 1 {
		t.Errorf("Expected completion key recorded once, got %d entries", len(rec.CompletedLessons))
	}
}

func TestCompleteLessonInsufficientCoins(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            0,
		CompletedLessons: []string{},
		Streak:           1,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	_, err := svc.CompleteLesson(context.Background(), "u1", "python-intro")
	if !errors.Is(err, ErrInsufficientCoins) {
		t.Fatalf("Expected ErrInsufficientCoins, got %v", err)
	}

	rec, _ := store.Find(context.Background(), "u1")
	if len(rec.CompletedLessons) != 0 {
		t.Error("Expected failed completion to record nothing")
	}
}

func TestCompleteLessonAdminBypassesCoins(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            testAdminEmail,
		IsAdmin:          true,
		Coins:            0,
		CompletedLessons: []string{},
		Streak:           1,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	outcome, err := svc.CompleteLesson(context.Background(), "u1", "python-intro")
	if err != nil {
		t.Fatalf("CompleteLesson failed for admin: %v", err)
	}
	if outcome != LessonCompleted {
		t.Errorf("Expected LessonCompleted, got %v", outcome)
	}

	rec, _ := store.Find(context.Background(), "u1")
	if rec.Coins != 0 {
		t.Errorf("Expected admin coin field untouched, got %d", rec.Coins)
	}
	if !rec.HasCompleted("python-intro") {
		t.Error("Expected admin completion to be recorded")
	}
}

func TestCompleteLessonConcurrentChargesOnce(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            "alice@example.com",
		Coins:            5,
		CompletedLessons: []string{},
		Streak:           1,
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	var wg sync.WaitGroup
	outcomes := make([]CompletionOutcome, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = svc.CompleteLesson(context.Background(), "u1", "python-intro")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("CompleteLesson %d failed: %v", i, err)
		}
	}

	completed := 0
	for _, o := range outcomes {
		if o == LessonCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("Expected exactly one racing call to win, got %d", completed)
	}

	rec, _ := store.Find(context.Background(), "u1")
	if rec.Coins != 4 {
		t.Errorf("Expected exactly one coin charged, got %d coins left", rec.Coins)
	}
	if len(rec.CompletedLessons) != 1 {
		t.Errorf("Expected completion key recorded once, got %d entries", len(rec.CompletedLessons))
	}
}

func TestAdjustCoinsAdminNoop(t *testing.T) {
	store := newFakeProgressStore()
	seedProgress(store, &models.UserProgress{
		UserID:           "u1",
		Email:            testAdminEmail,
		IsAdmin:          true,
		Coins:            0,
		CompletedLessons: []string{},
		LastLoginDate:    "2024-01-10",
	})
	svc := newTestProgression(store, &fakeEventSink{}, "2024-01-10")

	if err := svc.AdjustCoins(context.Background(), "u1", 10); err != nil {
		t.Fatalf("AdjustCoins failed: %v", err)
	}
	rec, _ := store.Find(context.Background(), "u1")
	if rec.Coins != 0 {
		t.Errorf("Expected admin balance untouched, got %d", rec.Coins)
	}
}

func TestAdjustCoinsUnknownUser(t *testing.T) {
	svc := newTestProgression(newFakeProgressStore(), &fakeEventSink{}, "2024-01-10")
	err := svc.AdjustCoins(context.Background(), "ghost", 3)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}
