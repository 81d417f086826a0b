package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// forecastMinBuckets is the minimum monthly history required before a
// forecast is produced.
const forecastMinBuckets = 3

type (
	// Bucket is one point of a time-bucketed series. Key is the bucket's
	// canonical label: YYYY-MM-DD for daily and weekly (week start),
	// YYYY-MM for monthly.
	Bucket struct {
		Key    string          `json:"key"`
		Amount decimal.Decimal `json:"amount"`
		Count  int             `json:"count"`
	}

	// TrendPoint is a monthly total with its change against the previous
	// month.
	TrendPoint struct {
		Period        string          `json:"period"`
		Amount        decimal.Decimal `json:"amount"`
		ChangePercent float64         `json:"change_percent"`
	}

	// ForecastPoint is a projected monthly total.
	ForecastPoint struct {
		Month     string          `json:"month"`
		Predicted decimal.Decimal `json:"predicted"`
	}
)

// DailySeries buckets entries by calendar day, ascending.
func DailySeries(entries []Entry) []Bucket {
	return series(entries, func(t time.Time) string {
		return t.Format("2006-01-02")
	})
}

// WeeklySeries buckets entries by the Sunday starting their week, ascending.
func WeeklySeries(entries []Entry) []Bucket {
	return series(entries, func(t time.Time) string {
		weekStart := t.AddDate(0, 0, -int(t.Weekday()))
		return weekStart.Format("2006-01-02")
	})
}

// MonthlySeries buckets entries by calendar month in ascending calendar
// order regardless of the order entries were discovered in.
func MonthlySeries(entries []Entry) []Bucket {
	return series(entries, func(t time.Time) string {
		return t.Format("2006-01")
	})
}

func series(entries []Entry, key func(time.Time) string) []Bucket {
	sums := make(map[string]decimal.Decimal)
	counts := make(map[string]int)
	for _, e := range entries {
		k := key(e.Date)
		sums[k] = sums[k].Add(e.Amount)
		counts[k]++
	}

	buckets := make([]Bucket, 0, len(sums))
	for k, amount := range sums {
		buckets = append(buckets, Bucket{Key: k, Amount: amount, Count: counts[k]})
	}
	// Keys are zero-padded dates, so lexicographic order is calendar order.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// Trend annotates a monthly series with month-over-month percentage
// change. The first point, and any point whose predecessor is zero,
// reports a change of 0.
func Trend(monthly []Bucket) []TrendPoint {
	points := make([]TrendPoint, len(monthly))
	for i, b := range monthly {
		p := TrendPoint{Period: b.Key, Amount: b.Amount}
		if i > 0 && monthly[i-1].Amount.Sign() != 0 {
			prev := monthly[i-1].Amount
			p.ChangePercent = percentOf(b.Amount.Sub(prev), prev)
		}
		points[i] = p
	}
	return points
}

// Forecast extrapolates the monthly series horizonMonths forward using the
// average of the deltas between the last three buckets. Predictions are
// clamped at zero. With fewer than three buckets there is not enough
// history and the forecast is empty.
func Forecast(monthly []Bucket, horizonMonths int) []ForecastPoint {
	if len(monthly) < forecastMinBuckets || horizonMonths <= 0 {
		return nil
	}

	last := monthly[len(monthly)-1]
	delta1 := monthly[len(monthly)-2].Amount.Sub(monthly[len(monthly)-3].Amount)
	delta2 := last.Amount.Sub(monthly[len(monthly)-2].Amount)
	avgDelta := delta1.Add(delta2).Div(decimal.NewFromInt(2))

	anchor, err := time.Parse("2006-01", last.Key)
	if err != nil {
		return nil
	}

	points := make([]ForecastPoint, 0, horizonMonths)
	for k := 1; k <= horizonMonths; k++ {
		predicted := last.Amount.Add(avgDelta.Mul(decimal.NewFromInt(int64(k))))
		if predicted.IsNegative() {
			predicted = decimal.Zero
		}
		points = append(points, ForecastPoint{
			Month:     anchor.AddDate(0, k, 0).Format("2006-01"),
			Predicted: predicted,
		})
	}
	return points
}
