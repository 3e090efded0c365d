// Package transform computes derived columns and summary statistics for
// a fetched bar series. All functions are pure with respect to their
// numeric output: the same input always produces the same result.
package transform

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/harvest/internal/models"
)

// Window is the fixed trailing window for rolling statistics. A row's
// rolling value covers that row and the preceding Window-1 rows; the
// first Window-1 rows of a series have no rolling value.
const Window = 20

// TradingDaysPerYear scales daily return volatility to annual.
const TradingDaysPerYear = 252

// Derive fills the daily return and rolling columns on the series bars,
// in place. Bars must be ascending by date.
func Derive(series *models.Series) error {
	if err := validate(series); err != nil {
		return err
	}

	bars := series.Bars

	// Daily returns; the first row has no prior close
	for i := 1; i < len(bars); i++ {
		r := (bars[i].Close - bars[i-1].Close) / bars[i-1].Close
		bars[i].DailyReturn = ptr(r)
	}

	// Rolling statistics over the trailing window
	for i := Window - 1; i < len(bars); i++ {
		closes := make([]float64, 0, Window)
		returns := make([]float64, 0, Window)
		for j := i - Window + 1; j <= i; j++ {
			closes = append(closes, bars[j].Close)
			if bars[j].DailyReturn != nil {
				returns = append(returns, *bars[j].DailyReturn)
			}
		}

		bars[i].RollingSMA = ptr(stat.Mean(closes, nil))
		if len(returns) >= 2 {
			bars[i].RollingVolatility = ptr(stat.StdDev(returns, nil))
		}
	}

	return nil
}

// Summarize computes summary statistics over a series. Derive need not
// have run first; returns are recomputed from closes.
func Summarize(series *models.Series) (*models.SymbolMetrics, error) {
	if err := validate(series); err != nil {
		return nil, err
	}

	bars := series.Bars

	volumes := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	maxPrice := bars[0].High
	minPrice := bars[0].Low
	for i, bar := range bars {
		volumes[i] = float64(bar.Volume)
		closes[i] = bar.Close
		if bar.High > maxPrice {
			maxPrice = bar.High
		}
		if bar.Low < minPrice {
			minPrice = bar.Low
		}
	}

	returns := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns = append(returns, (bars[i].Close-bars[i-1].Close)/bars[i-1].Close)
	}

	annualized := 0.0
	if len(returns) >= 2 {
		annualized = stat.StdDev(returns, nil) * math.Sqrt(TradingDaysPerYear)
	}

	return &models.SymbolMetrics{
		AvgVolume:            stat.Mean(volumes, nil),
		AvgPrice:             stat.Mean(closes, nil),
		AnnualizedVolatility: annualized,
		MaxPrice:             maxPrice,
		MinPrice:             minPrice,
		PriceRange:           maxPrice - minPrice,
		TradingDays:          len(bars),
	}, nil
}

// validate rejects series the transform cannot process: no rows, or bars
// whose close would poison return calculations.
func validate(series *models.Series) error {
	if series == nil || len(series.Bars) == 0 {
		return fmt.Errorf("series is empty")
	}
	for i, bar := range series.Bars {
		if bar.Close <= 0 {
			return fmt.Errorf("bar %d (%s) has non-positive close %f",
				i, bar.Date.Format("2006-01-02"), bar.Close)
		}
	}
	return nil
}

func ptr(v float64) *float64 {
	return &v
}
