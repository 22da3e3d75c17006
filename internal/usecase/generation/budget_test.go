package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardquery/internal/domain"
	domusage "github.com/kailas-cloud/cardquery/internal/domain/usage"
)

func TestBudgetTracker_RejectWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionReject, zap.NewNop())

	bt.Record(100)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrGenerationQuotaExceeded) {
		t.Fatalf("expected ErrGenerationQuotaExceeded, got %v", err)
	}
}

func TestBudgetTracker_WarnWhenExceeded(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 0, BudgetActionWarn, zap.NewNop())

	bt.Record(200)

	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("expected nil error for warn action, got %v", err)
	}
}

func TestBudgetTracker_MonthlyReject(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 500, BudgetActionReject, zap.NewNop())

	bt.Record(500)

	if err := bt.Check(context.Background()); !errors.Is(err, domain.ErrGenerationQuotaExceeded) {
		t.Fatalf("expected ErrGenerationQuotaExceeded for monthly limit, got %v", err)
	}
}

func TestBudgetTracker_Remaining(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionWarn, zap.NewNop())

	bt.Record(300)

	if got := bt.RemainingDaily(); got != 700 {
		t.Errorf("expected daily remaining 700, got %d", got)
	}
	if got := bt.RemainingMonthly(); got != 9700 {
		t.Errorf("expected monthly remaining 9700, got %d", got)
	}

	bt.Record(5000)
	if got := bt.RemainingDaily(); got != 0 {
		t.Errorf("expected daily remaining clamped to 0, got %d", got)
	}

	unlimited := NewBudgetTracker("test", 0, 0, BudgetActionWarn, zap.NewNop())
	if unlimited.RemainingDaily() != -1 || unlimited.RemainingMonthly() != -1 {
		t.Error("expected -1 for unlimited budget")
	}
}

func TestBudgetTracker_ByPeriod(t *testing.T) {
	bt := NewBudgetTracker("test", 1000, 10000, BudgetActionWarn, zap.NewNop())
	bt.Record(250)

	tests := []struct {
		period                 domusage.Period
		limit, used, remaining int64
	}{
		{domusage.PeriodDay, 1000, 250, 750},
		{domusage.PeriodMonth, 10000, 250, 9750},
	}
	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			if got := bt.Limit(tt.period); got != tt.limit {
				t.Errorf("Limit = %d, want %d", got, tt.limit)
			}
			if got := bt.Used(tt.period); got != tt.used {
				t.Errorf("Used = %d, want %d", got, tt.used)
			}
			if got := bt.Remaining(tt.period); got != tt.remaining {
				t.Errorf("Remaining = %d, want %d", got, tt.remaining)
			}
		})
	}
}

func TestBudgetTracker_DayRollover(t *testing.T) {
	bt := NewBudgetTracker("test", 100, 1000, BudgetActionReject, zap.NewNop())
	now := time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)
	bt.now = func() time.Time { return now }
	bt.day, bt.month = truncateToDay(now), truncateToMonth(now)

	bt.Record(100)
	if err := bt.Check(context.Background()); err == nil {
		t.Fatal("expected rejection before midnight")
	}

	now = now.Add(2 * time.Hour)
	if err := bt.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error after rollover: %v", err)
	}
	if bt.Used(domusage.PeriodDay) != 0 || bt.Used(domusage.PeriodMonth) != 100 {
		t.Errorf("daily=%d monthly=%d, want 0 and 100", bt.Used(domusage.PeriodDay), bt.Used(domusage.PeriodMonth))
	}
}

type mockBudgetStore struct {
	mu     sync.Mutex
	values map[string]int64
	err    error
}

func (m *mockBudgetStore) IncrBy(_ context.Context, key string, val int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.values[key] += val
	return nil
}

func (m *mockBudgetStore) Get(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.values[key], nil
}

func TestBudgetTracker_WithStore(t *testing.T) {
	store := &mockBudgetStore{values: map[string]int64{}}
	first := NewBudgetTracker("openai", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(context.Background(), store)
	first.Record(400)

	second := NewBudgetTracker("openai", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(context.Background(), store)
	if second.Used(domusage.PeriodDay) != 400 || second.Used(domusage.PeriodMonth) != 400 {
		t.Errorf("loaded daily=%d monthly=%d, want 400", second.Used(domusage.PeriodDay), second.Used(domusage.PeriodMonth))
	}
}

func TestBudgetTracker_StoreErrorsAreIgnored(t *testing.T) {
	store := &mockBudgetStore{values: map[string]int64{}, err: errors.New("down")}
	bt := NewBudgetTracker("openai", 1000, 0, BudgetActionReject, zap.NewNop()).
		WithStore(context.Background(), store)

	bt.Record(10)
	if bt.Used(domusage.PeriodDay) != 10 {
		t.Errorf("expected in-memory counter to advance, got %d", bt.Used(domusage.PeriodDay))
	}
}

func TestBudgetTracker_ConcurrentRecord(t *testing.T) {
	bt := NewBudgetTracker("test", 0, 0, BudgetActionWarn, zap.NewNop())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bt.Record(2)
		}()
	}
	wg.Wait()

	if bt.Used(domusage.PeriodDay) != 100 {
		t.Errorf("expected 100, got %d", bt.Used(domusage.PeriodDay))
	}
}
