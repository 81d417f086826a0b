package analytics

import (
	"testing"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

func TestProgressOverBudget(t *testing.T) {
	now := date(2024, 3, 15)
	goal := core.BudgetGoal{
		Category: core.CategoryFoodDining,
		Amount:   amt("100"),
		Period:   core.Monthly,
	}
	entries := []Entry{
		{Amount: amt("70"), Category: core.CategoryFoodDining, Date: date(2024, 3, 2)},
		{Amount: amt("50"), Category: core.CategoryFoodDining, Date: date(2024, 3, 10)},
		// Different category, must not count.
		{Amount: amt("40"), Category: core.CategoryTravel, Date: date(2024, 3, 5)},
		// Right category, wrong month.
		{Amount: amt("500"), Category: core.CategoryFoodDining, Date: date(2024, 2, 5)},
	}

	p := Progress(goal, entries, now)

	if !p.Spent.Equal(amt("120")) {
		t.Errorf("Spent = %s, want 120", p.Spent)
	}
	if p.Percentage != 100 {
		t.Errorf("Percentage = %f, want capped at 100", p.Percentage)
	}
	if !p.OverBudget {
		t.Error("OverBudget = false, want true")
	}
	if !p.OverAmount.Equal(amt("20")) {
		t.Errorf("OverAmount = %s, want 20", p.OverAmount)
	}
}

func TestProgressUnderBudget(t *testing.T) {
	now := date(2024, 3, 15)
	goal := core.BudgetGoal{
		Category: core.CategoryTravel,
		Amount:   amt("200"),
		Period:   core.Monthly,
	}
	entries := []Entry{
		{Amount: amt("50"), Category: core.CategoryTravel, Date: date(2024, 3, 1)},
	}

	p := Progress(goal, entries, now)

	if p.Percentage != 25 {
		t.Errorf("Percentage = %f, want 25", p.Percentage)
	}
	if p.OverBudget {
		t.Error("OverBudget = true, want false")
	}
	if p.OverAmount.Sign() != 0 {
		t.Errorf("OverAmount = %s, want 0", p.OverAmount)
	}
}

func TestProgressWeeklyPeriod(t *testing.T) {
	// now is Wednesday 2024-03-13; week runs 03-10 through 03-16.
	now := date(2024, 3, 13)
	goal := core.BudgetGoal{
		Category: core.CategoryShopping,
		Amount:   amt("100"),
		Period:   core.Weekly,
	}
	entries := []Entry{
		{Amount: amt("30"), Category: core.CategoryShopping, Date: date(2024, 3, 10)},
		{Amount: amt("30"), Category: core.CategoryShopping, Date: date(2024, 3, 16)},
		// Previous week.
		{Amount: amt("30"), Category: core.CategoryShopping, Date: date(2024, 3, 9)},
	}

	p := Progress(goal, entries, now)
	if !p.Spent.Equal(amt("60")) {
		t.Errorf("Spent = %s, want 60 (both week boundaries included)", p.Spent)
	}
}

func TestProgressZeroGoalAmount(t *testing.T) {
	now := date(2024, 3, 15)
	goal := core.BudgetGoal{
		Category: core.CategoryOther,
		Amount:   decimal.Zero,
		Period:   core.Monthly,
	}

	t.Run("spending against a zero goal is immediately over", func(t *testing.T) {
		entries := []Entry{
			{Amount: amt("10"), Category: core.CategoryOther, Date: date(2024, 3, 1)},
		}
		p := Progress(goal, entries, now)
		if p.Percentage != 100 || !p.OverBudget || !p.OverAmount.Equal(amt("10")) {
			t.Errorf("got %+v, want 100%% / over by 10", p)
		}
	})

	t.Run("no spending against a zero goal reports zero", func(t *testing.T) {
		p := Progress(goal, nil, now)
		if p.Percentage != 0 || p.OverBudget || p.OverAmount.Sign() != 0 {
			t.Errorf("got %+v, want all zero", p)
		}
	})
}
