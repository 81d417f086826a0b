package analytics

import (
	"testing"

	"pennywise/internal/core"
)

func TestMonthlySeriesCalendarOrder(t *testing.T) {
	// Entries arrive out of order; buckets must come back chronological.
	entries := []Entry{
		{Amount: amt("30"), Category: core.CategoryOther, Date: date(2024, 3, 5)},
		{Amount: amt("10"), Category: core.CategoryOther, Date: date(2024, 1, 20)},
		{Amount: amt("20"), Category: core.CategoryOther, Date: date(2024, 2, 1)},
		{Amount: amt("5"), Category: core.CategoryOther, Date: date(2024, 1, 3)},
	}

	series := MonthlySeries(entries)

	wantKeys := []string{"2024-01", "2024-02", "2024-03"}
	if len(series) != len(wantKeys) {
		t.Fatalf("got %d buckets, want %d", len(series), len(wantKeys))
	}
	for i, k := range wantKeys {
		if series[i].Key != k {
			t.Errorf("bucket[%d].Key = %s, want %s", i, series[i].Key, k)
		}
	}
	if !series[0].Amount.Equal(amt("15")) {
		t.Errorf("January total = %s, want 15", series[0].Amount)
	}
	if series[0].Count != 2 {
		t.Errorf("January count = %d, want 2", series[0].Count)
	}

	// December to January crosses a year boundary and must still sort.
	cross := MonthlySeries([]Entry{
		{Amount: amt("1"), Category: core.CategoryOther, Date: date(2024, 1, 1)},
		{Amount: amt("1"), Category: core.CategoryOther, Date: date(2023, 12, 31)},
	})
	if cross[0].Key != "2023-12" || cross[1].Key != "2024-01" {
		t.Errorf("year boundary order wrong: %s, %s", cross[0].Key, cross[1].Key)
	}
}

func TestWeeklySeriesBucketsBySunday(t *testing.T) {
	// 2024-03-13 (Wed) and 2024-03-10 (Sun) share week start 2024-03-10;
	// 2024-03-09 (Sat) belongs to the week starting 2024-03-03.
	entries := []Entry{
		{Amount: amt("1"), Category: core.CategoryOther, Date: date(2024, 3, 13)},
		{Amount: amt("2"), Category: core.CategoryOther, Date: date(2024, 3, 10)},
		{Amount: amt("4"), Category: core.CategoryOther, Date: date(2024, 3, 9)},
	}

	series := WeeklySeries(entries)
	if len(series) != 2 {
		t.Fatalf("got %d buckets, want 2", len(series))
	}
	if series[0].Key != "2024-03-03" || !series[0].Amount.Equal(amt("4")) {
		t.Errorf("first bucket = %s %s, want 2024-03-03 4", series[0].Key, series[0].Amount)
	}
	if series[1].Key != "2024-03-10" || !series[1].Amount.Equal(amt("3")) {
		t.Errorf("second bucket = %s %s, want 2024-03-10 3", series[1].Key, series[1].Amount)
	}
}

func TestTrendChangePercent(t *testing.T) {
	series := []Bucket{
		{Key: "2024-01", Amount: amt("100")},
		{Key: "2024-02", Amount: amt("150")},
		{Key: "2024-03", Amount: amt("120")},
	}

	points := Trend(series)

	if points[0].ChangePercent != 0 {
		t.Errorf("first point change = %f, want 0", points[0].ChangePercent)
	}
	if points[1].ChangePercent != 50 {
		t.Errorf("second point change = %f, want 50", points[1].ChangePercent)
	}
	if points[2].ChangePercent != -20 {
		t.Errorf("third point change = %f, want -20", points[2].ChangePercent)
	}
}

func TestTrendZeroPriorReportsZero(t *testing.T) {
	series := []Bucket{
		{Key: "2024-01", Amount: amt("0")},
		{Key: "2024-02", Amount: amt("80")},
	}

	points := Trend(series)
	if points[1].ChangePercent != 0 {
		t.Errorf("change after zero month = %f, want 0", points[1].ChangePercent)
	}
}

func TestForecastRequiresThreeBuckets(t *testing.T) {
	two := []Bucket{
		{Key: "2024-01", Amount: amt("100")},
		{Key: "2024-02", Amount: amt("200")},
	}
	if got := Forecast(two, 3); len(got) != 0 {
		t.Errorf("forecast with 2 buckets = %v, want empty", got)
	}
}

func TestForecastLinearExtrapolation(t *testing.T) {
	series := []Bucket{
		{Key: "2024-01", Amount: amt("100")},
		{Key: "2024-02", Amount: amt("200")},
		{Key: "2024-03", Amount: amt("300")},
	}

	points := Forecast(series, 3)
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}

	want := []struct {
		month     string
		predicted string
	}{
		{"2024-04", "400"},
		{"2024-05", "500"},
		{"2024-06", "600"},
	}
	for i, w := range want {
		if points[i].Month != w.month {
			t.Errorf("points[%d].Month = %s, want %s", i, points[i].Month, w.month)
		}
		if !points[i].Predicted.Equal(amt(w.predicted)) {
			t.Errorf("points[%d].Predicted = %s, want %s", i, points[i].Predicted, w.predicted)
		}
	}
}

func TestForecastClampedAtZero(t *testing.T) {
	series := []Bucket{
		{Key: "2024-01", Amount: amt("300")},
		{Key: "2024-02", Amount: amt("150")},
		{Key: "2024-03", Amount: amt("50")},
	}

	// avgDelta = -125, so month 1 predicts 0 (clamped from -75).
	points := Forecast(series, 2)
	for i, p := range points {
		if p.Predicted.IsNegative() {
			t.Errorf("points[%d].Predicted = %s, want >= 0", i, p.Predicted)
		}
	}
	if !points[0].Predicted.Equal(amt("0")) {
		t.Errorf("points[0].Predicted = %s, want 0", points[0].Predicted)
	}
}
