package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pennywise/internal/analytics"
	"pennywise/internal/core"
	"pennywise/internal/log"
)

const forecastHorizonMonths = 3

// ErrInvalidRange rejects report ranges outside the supported set.
var ErrInvalidRange = errors.New("invalid range: must be one of 7d, 30d, 90d, 1y")

// AnalyticsRepository is the read-only storage surface report building needs.
type AnalyticsRepository interface {
	ListExpensesSince(ctx context.Context, userID string, since time.Time) ([]core.Expense, error)
	ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	ListBudgetGoals(ctx context.Context, userID string) ([]core.BudgetGoal, error)
	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
}

// ReportCache holds rendered reports keyed by "<userID>:<range>".
type ReportCache interface {
	Get(key string) (*AnalyticsReport, bool)
	Set(key string, report *AnalyticsReport)
}

// AnalyticsReport is the full payload of the analytics endpoint.
type AnalyticsReport struct {
	Range    string                    `json:"range"`
	Currency string                    `json:"currency"`
	Summary  analytics.Summary         `json:"summary"`
	Daily    []analytics.Bucket        `json:"daily"`
	Weekly   []analytics.Bucket        `json:"weekly"`
	Monthly  []analytics.Bucket        `json:"monthly"`
	Trend    []analytics.TrendPoint    `json:"trend"`
	Forecast []analytics.ForecastPoint `json:"forecast"`
	Insights []analytics.Insight       `json:"insights"`
}

type AnalyticsService struct {
	repo    AnalyticsRepository
	profile *ProfileService
	cache   ReportCache
	logger  *log.Logger
	now     func() time.Time
}

func NewAnalyticsService(repo AnalyticsRepository, profile *ProfileService, cache ReportCache, logger *log.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:    repo,
		profile: profile,
		cache:   cache,
		logger:  logger.WithComponent(log.ComponentAnalytics),
		now:     time.Now,
	}
}

// Report builds (or serves from cache) the analytics report for a range.
// Valid ranges are 7d, 30d, 90d and 1y.
func (s *AnalyticsService) Report(ctx context.Context, userID, rng string) (*AnalyticsReport, error) {
	if rng == "" {
		rng = "30d"
	}
	days, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	key := userID + ":" + rng
	if s.cache != nil {
		if report, ok := s.cache.Get(key); ok {
			s.logger.DebugContext(ctx, "Analytics report served from cache",
				log.FieldUserID, userID, log.FieldRange, rng)
			return report, nil
		}
	}

	now := s.now()
	since := now.AddDate(0, 0, -days)
	expenses, err := s.repo.ListExpensesSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := analytics.FromExpenses(expenses)
	monthly := analytics.MonthlySeries(entries)

	report := &AnalyticsReport{
		Range:    rng,
		Currency: profile.Currency,
		Summary:  analytics.Summarize(entries),
		Daily:    analytics.DailySeries(entries),
		Weekly:   analytics.WeeklySeries(entries),
		Monthly:  monthly,
		Trend:    analytics.Trend(monthly),
		Forecast: analytics.Forecast(monthly, forecastHorizonMonths),
		Insights: analytics.Insights(entries, *profile, now),
	}

	if s.cache != nil {
		s.cache.Set(key, report)
	}
	return report, nil
}

// Insights computes the insight feed over the current and previous month.
func (s *AnalyticsService) Insights(ctx context.Context, userID string) ([]analytics.Insight, error) {
	now := s.now()
	// Two calendar months cover every insight window.
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	expenses, err := s.repo.ListExpensesSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}

	profile, err := s.profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	return analytics.Insights(analytics.FromExpenses(expenses), *profile, now), nil
}

func parseRange(rng string) (int, error) {
	switch rng {
	case "", "30d":
		return 30, nil
	case "7d":
		return 7, nil
	case "90d":
		return 90, nil
	case "1y":
		return 365, nil
	default:
		return 0, fmt.Errorf("%w (got %q)", ErrInvalidRange, rng)
	}
}
