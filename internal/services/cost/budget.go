package cost

import (
	"context"
	"sync"
	"time"

	"github.com/thomas-vilte/commitlens/internal/logger"
)

// SpendSource reports what was already spent on a given day, typically from
// the run history.
type SpendSource interface {
	DailySpend(ctx context.Context, day time.Time) (float64, error)
}

type BudgetStatus struct {
	IsExceeded   bool
	PercentUsed  float64
	TodayTotal   float64
	Estimated    float64
	Limit        float64
	IsWarning    bool
	WarningLevel int // 50, 75, 90
}

// Budget enforces a daily USD limit over persisted spend plus the spend
// recorded by this process. A non-positive limit disables the check.
type Budget struct {
	mu          sync.Mutex
	source      SpendSource
	budgetDaily float64
	session     float64
	now         func() time.Time
}

func NewBudget(budgetDaily float64, source SpendSource) *Budget {
	return &Budget{
		source:      source,
		budgetDaily: budgetDaily,
		now:         time.Now,
	}
}

// Record adds spend made by this process that is not yet persisted.
func (b *Budget) Record(costUSD float64) {
	b.mu.Lock()
	b.session += costUSD
	b.mu.Unlock()
}

// CheckBudget reports whether spending estimatedCost more would exceed the daily limit.
func (b *Budget) CheckBudget(ctx context.Context, estimatedCost float64) (*BudgetStatus, error) {
	if b.budgetDaily <= 0 {
		return &BudgetStatus{}, nil
	}

	todayTotal, err := b.DailyTotal(ctx)
	if err != nil {
		logger.Error(ctx, "failed to get daily total", err)
		return nil, err
	}

	percentUsed := (todayTotal / b.budgetDaily) * 100
	newPercent := ((todayTotal + estimatedCost) / b.budgetDaily) * 100

	status := &BudgetStatus{
		IsExceeded:  newPercent > 100,
		PercentUsed: percentUsed,
		TodayTotal:  todayTotal,
		Estimated:   estimatedCost,
		Limit:       b.budgetDaily,
	}

	switch {
	case percentUsed >= 90:
		status.IsWarning, status.WarningLevel = true, 90
	case percentUsed >= 75:
		status.IsWarning, status.WarningLevel = true, 75
	case percentUsed >= 50:
		status.IsWarning, status.WarningLevel = true, 50
	}

	logger.Debug(ctx, "budget check completed",
		"today_total", todayTotal,
		"estimated_cost", estimatedCost,
		"percent_used", percentUsed,
		"is_exceeded", status.IsExceeded)

	return status, nil
}

// DailyTotal is the persisted spend for today plus this process's spend.
func (b *Budget) DailyTotal(ctx context.Context) (float64, error) {
	b.mu.Lock()
	session := b.session
	b.mu.Unlock()

	if b.source == nil {
		return session, nil
	}
	persisted, err := b.source.DailySpend(ctx, b.now())
	if err != nil {
		return 0, err
	}
	return persisted + session, nil
}
