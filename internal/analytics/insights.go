package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
)

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

type (
	// Severity tags how urgent an insight is.
	Severity string

	// Insight is a generated advisory message about a spending pattern or
	// risk. Action is empty when there is nothing specific to recommend.
	Insight struct {
		Severity    Severity `json:"severity"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		Action      string   `json:"action,omitempty"`
	}

	// insightContext carries the pre-aggregated figures each rule reads.
	insightContext struct {
		current   Summary
		lastTotal decimal.Decimal
		weekTotal decimal.Decimal
		profile   core.Profile
		symbol    string
	}

	// insightRule is one row of the decision table: a name and a condition
	// that either produces an insight or declines.
	insightRule struct {
		name  string
		apply func(insightContext) (Insight, bool)
	}
)

// insightRules is the fixed rule set, evaluated independently and in
// order. Adding a rule means appending here, not touching control flow.
var insightRules = []insightRule{
	{name: "monthly_comparison", apply: monthlyComparisonRule},
	{name: "top_category", apply: topCategoryRule},
	{name: "budget_usage", apply: budgetUsageRule},
	{name: "weekly_pace", apply: weeklyPaceRule},
}

// Insights applies the fixed rule set over the entries snapshot. Rules
// whose preconditions fail are skipped; with insufficient data the result
// degrades to an empty set rather than an error.
func Insights(entries []Entry, profile core.Profile, now time.Time) []Insight {
	cctx := insightContext{
		current: Aggregate(entries, now, core.Monthly),
		profile: profile,
		symbol:  CurrencySymbol(profile.Currency),
	}
	cctx.lastTotal = Aggregate(entries, previousMonth(now), core.Monthly).Total
	cctx.weekTotal = Aggregate(entries, now, core.Weekly).Total

	insights := make([]Insight, 0, len(insightRules))
	for _, rule := range insightRules {
		if insight, ok := rule.apply(cctx); ok {
			insights = append(insights, insight)
		}
	}
	return insights
}

// monthlyComparisonRule compares this month's total with last month's.
// Skipped when last month has no spending.
func monthlyComparisonRule(c insightContext) (Insight, bool) {
	if c.lastTotal.Sign() <= 0 {
		return Insight{}, false
	}
	change := percentOf(c.current.Total.Sub(c.lastTotal), c.lastTotal)

	direction := "Decreased"
	comparative := "lower"
	severity := SeveritySuccess
	if change > 0 {
		direction = "Increased"
		comparative = "higher"
		severity = SeverityWarning
	}
	insight := Insight{
		Severity:    severity,
		Title:       "Monthly Spending " + direction,
		Description: fmt.Sprintf("%.1f%% %s than last month", abs(change), comparative),
	}
	if change > 20 {
		insight.Action = "Consider reviewing your budget"
	}
	return insight, true
}

// topCategoryRule reports the largest category of the current month.
// Skipped when the month has no spending.
func topCategoryRule(c insightContext) (Insight, bool) {
	top, ok := c.current.TopCategory()
	if !ok || c.current.Total.Sign() <= 0 {
		return Insight{}, false
	}

	severity := SeverityInfo
	action := ""
	if top.Percentage > 40 {
		severity = SeverityWarning
		action = "Consider setting a budget limit for this category"
	}
	return Insight{
		Severity: severity,
		Title:    "Top Spending Category: " + displayCategory(top.Category),
		Description: fmt.Sprintf("%s%s (%.1f%% of total spending)",
			c.symbol, top.Amount.StringFixed(2), top.Percentage),
		Action: action,
	}, true
}

// budgetUsageRule measures the month's spending against the configured
// monthly salary. Skipped when no salary is set.
func budgetUsageRule(c insightContext) (Insight, bool) {
	if !c.profile.HasSalary || c.profile.MonthlySalary.Sign() <= 0 {
		return Insight{}, false
	}
	used := percentOf(c.current.Total, c.profile.MonthlySalary)
	remaining := c.profile.MonthlySalary.Sub(c.current.Total)

	severity := SeveritySuccess
	action := ""
	switch {
	case used > 80:
		severity = SeverityWarning
		action = "Consider reducing expenses"
	case used > 60:
		severity = SeverityInfo
	}
	return Insight{
		Severity:    severity,
		Title:       fmt.Sprintf("Budget Usage: %.1f%%", used),
		Description: fmt.Sprintf("%s%s remaining this month", c.symbol, remaining.StringFixed(2)),
		Action:      action,
	}, true
}

// weeklyPaceRule projects the current week's daily average over a 30-day
// month and warns when the projection crosses 90% of the salary.
// Skipped when no salary is set or the pace stays inside the budget.
func weeklyPaceRule(c insightContext) (Insight, bool) {
	if !c.profile.HasSalary || c.profile.MonthlySalary.Sign() <= 0 {
		return Insight{}, false
	}
	avgDaily := c.weekTotal.Div(decimal.NewFromInt(7))
	projected := avgDaily.Mul(decimal.NewFromInt(30))

	threshold := c.profile.MonthlySalary.Mul(decimal.NewFromFloat(0.9))
	if !projected.GreaterThan(threshold) {
		return Insight{}, false
	}
	overrun := projected.Sub(c.profile.MonthlySalary)
	return Insight{
		Severity: SeverityWarning,
		Title:    "High Weekly Spending Trend",
		Description: fmt.Sprintf("At current pace, you might exceed your budget by %s%s",
			c.symbol, overrun.StringFixed(2)),
		Action: "Consider reducing daily expenses",
	}, true
}

// displayCategory renders a category tag for humans: food_dining ->
// "Food Dining".
func displayCategory(c core.Category) string {
	words := strings.Split(string(c), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
