// Package models defines data structures for Harvest
package models

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents a single day's price data plus derived columns.
// Derived fields are nil until the rolling window fills; that is expected,
// not an error.
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`

	DailyReturn       *float64 `json:"daily_return,omitempty"`
	RollingVolatility *float64 `json:"rolling_volatility,omitempty"`
	RollingSMA        *float64 `json:"rolling_sma,omitempty"`
}

// Series holds the bar history for one symbol over a date range.
// Bars are ordered ascending by date with no duplicate dates.
type Series struct {
	Symbol string    `json:"symbol"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Bars   []Bar     `json:"bars"`
}

// Request identifies one fetch task: a symbol and its date range.
// Immutable once dispatched.
type Request struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// NewRequest builds a request with a normalized symbol.
func NewRequest(symbol string, from, to time.Time) Request {
	return Request{
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		From:   from,
		To:     to,
	}
}

// Validate checks the request is well-formed before dispatch.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if r.From.After(r.To) {
		return fmt.Errorf("start date %s after end date %s",
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return nil
}
