package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

// GoalProgress is the computed spent-vs-target state of one budget goal.
type GoalProgress struct {
	Spent      decimal.Decimal `json:"spent"`
	Percentage float64         `json:"percentage"`
	OverBudget bool            `json:"over_budget"`
	OverAmount decimal.Decimal `json:"over_amount"`
}

// Progress sums the entries matching the goal's category inside the
// goal's period and measures them against the target amount.
//
// Percentage is capped at 100 for display. A goal with a zero target is
// treated as immediately exhausted: any spending reports 100% and
// over-budget by the full spent amount, no spending reports 0%. This
// replaces the NaN the division would otherwise produce.
func Progress(goal core.BudgetGoal, entries []Entry, now time.Time) GoalProgress {
	spent := decimal.Zero
	for _, e := range entries {
		if e.Category != goal.Category {
			continue
		}
		if !InPeriod(e.Date, now, goal.Period) {
			continue
		}
		spent = spent.Add(e.Amount)
	}

	p := GoalProgress{Spent: spent, OverAmount: decimal.Zero}
	if goal.Amount.Sign() <= 0 {
		if spent.Sign() > 0 {
			p.Percentage = 100
			p.OverBudget = true
			p.OverAmount = spent
		}
		return p
	}

	p.Percentage = percentOf(spent, goal.Amount)
	if p.Percentage > 100 {
		p.Percentage = 100
	}
	if spent.GreaterThan(goal.Amount) {
		p.OverBudget = true
		p.OverAmount = spent.Sub(goal.Amount)
	}
	return p
}
