package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/storage"
)

type fakeAnalyticsRepo struct {
	expenses   []core.Expense
	goals      []core.BudgetGoal
	profile    *core.Profile
	sinceCalls int
	lastSince  time.Time
}

func (f *fakeAnalyticsRepo) ListExpensesSince(_ context.Context, _ string, since time.Time) ([]core.Expense, error) {
	f.sinceCalls++
	f.lastSince = since
	var out []core.Expense
	for _, e := range f.expenses {
		if !e.Date.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsRepo) ListExpenses(_ context.Context, _ string) ([]core.Expense, error) {
	return f.expenses, nil
}

func (f *fakeAnalyticsRepo) ListBudgetGoals(_ context.Context, _ string) ([]core.BudgetGoal, error) {
	return f.goals, nil
}

func (f *fakeAnalyticsRepo) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	if f.profile == nil {
		return nil, storage.ErrNotFound
	}
	return f.profile, nil
}

// fakeProfileRepo backs the ProfileService the analytics service consults.
type fakeProfileRepo struct {
	profile *core.Profile
}

func (f *fakeProfileRepo) GetProfile(_ context.Context, _ string) (*core.Profile, error) {
	if f.profile == nil {
		return nil, storage.ErrNotFound
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) UpsertProfile(_ context.Context, p core.Profile) error {
	f.profile = &p
	return nil
}

type fakeReportCache struct {
	entries map[string]*AnalyticsReport
}

func newFakeReportCache() *fakeReportCache {
	return &fakeReportCache{entries: make(map[string]*AnalyticsReport)}
}

func (f *fakeReportCache) Get(key string) (*AnalyticsReport, bool) {
	report, ok := f.entries[key]
	return report, ok
}

func (f *fakeReportCache) Set(key string, report *AnalyticsReport) {
	f.entries[key] = report
}

func (f *fakeReportCache) DeletePrefix(prefix string) int { return 0 }

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError, Component: log.ComponentAnalytics})
}

func newTestAnalyticsService(repo *fakeAnalyticsRepo, profileRepo *fakeProfileRepo, cache ReportCache) *AnalyticsService {
	logger := testLogger()
	profiles := NewProfileService(profileRepo, newFakeReportCache(), logger)
	svc := NewAnalyticsService(repo, profiles, cache, logger)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func analyticsExpense(id, date, amount string, category core.Category) core.Expense {
	d, err := time.Parse(core.DateLayout, date)
	if err != nil {
		panic(err)
	}
	return core.Expense{
		ID:       id,
		UserID:   "user-1",
		Title:    "expense " + id,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     d,
	}
}

func TestReportBuildsAndCaches(t *testing.T) {
	repo := &fakeAnalyticsRepo{
		expenses: []core.Expense{
			analyticsExpense("e1", "2024-03-10", "60", core.CategoryFoodDining),
			analyticsExpense("e2", "2024-03-12", "40", core.CategoryTransportation),
		},
	}
	cache := newFakeReportCache()
	svc := newTestAnalyticsService(repo, &fakeProfileRepo{profile: &core.Profile{UserID: "user-1", Currency: "EUR"}}, cache)

	report, err := svc.Report(context.Background(), "user-1", "30d")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Range != "30d" {
		t.Errorf("Range = %q, want %q", report.Range, "30d")
	}
	if report.Currency != "EUR" {
		t.Errorf("Currency = %q, want %q", report.Currency, "EUR")
	}
	if !report.Summary.Total.Equal(decimal.RequireFromString("100")) {
		t.Errorf("Summary.Total = %s, want 100", report.Summary.Total)
	}
	if report.Summary.Count != 2 {
		t.Errorf("Summary.Count = %d, want 2", report.Summary.Count)
	}

	again, err := svc.Report(context.Background(), "user-1", "30d")
	if err != nil {
		t.Fatalf("Report() second call error = %v", err)
	}
	if again != report {
		t.Error("second call did not return the cached report")
	}
	if repo.sinceCalls != 1 {
		t.Errorf("repository queried %d times, want 1", repo.sinceCalls)
	}
}

func TestReportDefaultRange(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	cache := newFakeReportCache()
	svc := newTestAnalyticsService(repo, &fakeProfileRepo{}, cache)

	report, err := svc.Report(context.Background(), "user-1", "")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Range != "30d" {
		t.Errorf("Range = %q, want default %q", report.Range, "30d")
	}
	if _, ok := cache.entries["user-1:30d"]; !ok {
		t.Errorf("cache keys = %v, want entry under user-1:30d", cache.entries)
	}

	// A later explicit 30d request must hit the same entry.
	if _, err := svc.Report(context.Background(), "user-1", "30d"); err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if repo.sinceCalls != 1 {
		t.Errorf("repository queried %d times, want 1", repo.sinceCalls)
	}
}

func TestReportInvalidRange(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsRepo{}, &fakeProfileRepo{}, nil)

	_, err := svc.Report(context.Background(), "user-1", "2d")
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("Report() error = %v, want ErrInvalidRange", err)
	}
}

func TestReportWindow(t *testing.T) {
	cases := []struct {
		rng      string
		wantDays int
	}{
		{"7d", 7},
		{"30d", 30},
		{"90d", 90},
		{"1y", 365},
	}
	for _, tc := range cases {
		t.Run(tc.rng, func(t *testing.T) {
			repo := &fakeAnalyticsRepo{}
			svc := newTestAnalyticsService(repo, &fakeProfileRepo{}, nil)

			if _, err := svc.Report(context.Background(), "user-1", tc.rng); err != nil {
				t.Fatalf("Report() error = %v", err)
			}
			want := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -tc.wantDays)
			if !repo.lastSince.Equal(want) {
				t.Errorf("since = %s, want %s", repo.lastSince, want)
			}
		})
	}
}

func TestReportDefaultsCurrencyWithoutProfile(t *testing.T) {
	svc := newTestAnalyticsService(&fakeAnalyticsRepo{}, &fakeProfileRepo{}, nil)

	report, err := svc.Report(context.Background(), "user-1", "7d")
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report.Currency != "USD" {
		t.Errorf("Currency = %q, want fallback %q", report.Currency, "USD")
	}
}

func TestInsightsWindow(t *testing.T) {
	repo := &fakeAnalyticsRepo{}
	svc := newTestAnalyticsService(repo, &fakeProfileRepo{}, nil)

	if _, err := svc.Insights(context.Background(), "user-1"); err != nil {
		t.Fatalf("Insights() error = %v", err)
	}
	// First day of the month before the pinned clock.
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !repo.lastSince.Equal(want) {
		t.Errorf("since = %s, want %s", repo.lastSince, want)
	}
}
