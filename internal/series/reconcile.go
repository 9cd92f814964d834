package series

import (
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/interval"
)

const (
	// Lookback is how far behind now the chart window starts.
	Lookback = 4 * time.Hour
	// Lookahead is how far past now the chart window extends.
	Lookahead = 30 * time.Minute
	// TimeLayout formats bucket labels.
	TimeLayout = "15:04:05"
)

// WindowSize is the number of points Reconcile always returns.
const WindowSize = int((Lookback+Lookahead)/interval.Length) + 1

// Input is everything Reconcile needs to build one chart sequence.
type Input struct {
	Now time.Time
	// Current is the prediction for the open cycle; nil when none was fetched.
	Current *domain.PredictionPoint
	// LivePrice is the most recent spot price; nil when none was observed.
	LivePrice   *float64
	Prices      *History
	Predictions *History
	// Location renders labels; nil means UTC.
	Location *time.Location
}

// Reconcile walks the window from the bucket containing Now-Lookback to
// Now+Lookahead in 15-minute steps and merges the sources for every slot.
// In the open bucket the current-cycle prediction and live price take the
// place of missing history; slots after Now never carry an actual value.
func Reconcile(in Input) []domain.ChartPoint {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	prices := in.Prices
	if prices == nil {
		prices = NewHistory()
	}
	predictions := in.Predictions
	if predictions == nil {
		predictions = NewHistory()
	}

	now := in.Now
	start := interval.Current(now.Add(-Lookback))
	end := now.Add(Lookahead)

	points := make([]domain.ChartPoint, 0, WindowSize)
	for t := start; !t.After(end); t = t.Add(interval.Length) {
		isCurrent := interval.Contains(now, t)

		var predicted *float64
		if isCurrent && in.Current != nil {
			predicted = ptr(in.Current.Value)
		} else if v, ok := predictions.Get(t); ok {
			predicted = ptr(v)
		}

		var actual *float64
		if !t.After(now) {
			if v, ok := prices.Get(t); ok {
				actual = ptr(v)
			} else if isCurrent && in.LivePrice != nil {
				actual = ptr(*in.LivePrice)
			}
		}

		points = append(points, domain.ChartPoint{
			Time:      t.In(loc).Format(TimeLayout),
			Timestamp: t.UnixMilli(),
			Predicted: predicted,
			Actual:    actual,
		})
	}
	return points
}

// Trend returns the percentage change between the last two predicted values
// in points, or 0 when fewer than two exist.
func Trend(points []domain.ChartPoint) float64 {
	var last, prev *float64
	for i := len(points) - 1; i >= 0; i-- {
		p := points[i].Predicted
		if p == nil {
			continue
		}
		if last == nil {
			last = p
			continue
		}
		prev = p
		break
	}
	if last == nil || prev == nil || *prev == 0 {
		return 0
	}
	return (*last - *prev) / *prev * 100
}

func ptr(v float64) *float64 {
	return &v
}
