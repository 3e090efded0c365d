package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartPayload(timestamps []int64, closes []float64) string {
	ts := ""
	quote := struct{ open, high, low, clos, vol string }{}
	for i, t := range timestamps {
		sep := ""
		if i > 0 {
			sep = ","
		}
		ts += fmt.Sprintf("%s%d", sep, t)
		c := closes[i]
		quote.open += fmt.Sprintf("%s%g", sep, c*0.99)
		quote.high += fmt.Sprintf("%s%g", sep, c*1.01)
		quote.low += fmt.Sprintf("%s%g", sep, c*0.98)
		quote.clos += fmt.Sprintf("%s%g", sep, c)
		quote.vol += fmt.Sprintf("%s%d", sep, 1000000)
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"currency":"USD","symbol":"AAPL"},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],
		"error":null}}`, ts, quote.open, quote.high, quote.low, quote.clos, quote.vol)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(WithBaseURL(server.URL), WithRateLimit(1000))
}

func dateRange() (time.Time, time.Time) {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
}

func TestGetHistoryParsesBarsAscending(t *testing.T) {
	day1 := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC).Unix()
	day2 := time.Date(2024, 1, 4, 14, 30, 0, 0, time.UTC).Unix()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/AAPL")
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		// Deliver descending to prove the client sorts
		fmt.Fprint(w, chartPayload([]int64{day2, day1}, []float64{106, 101}))
	})

	from, to := dateRange()
	series, err := client.GetHistory(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, series.Bars, 2)

	assert.Equal(t, "AAPL", series.Symbol)
	assert.True(t, series.Bars[0].Date.Before(series.Bars[1].Date))
	assert.InDelta(t, 101, series.Bars[0].Close, 1e-9)
	assert.InDelta(t, 106, series.Bars[1].Close, 1e-9)
	assert.Equal(t, int64(1000000), series.Bars[0].Volume)
}

func TestGetHistorySkipsNullRows(t *testing.T) {
	day1 := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC).Unix()
	day2 := time.Date(2024, 1, 4, 14, 30, 0, 0, time.UTC).Unix()
	payload := fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"AAPL"},
		"timestamp":[%d,%d],
		"indicators":{"quote":[{"open":[100,null],"high":[102,null],"low":[99,null],
		"close":[101,null],"volume":[500,null]}]}}],"error":null}}`, day1, day2)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	from, to := dateRange()
	series, err := client.GetHistory(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	require.Len(t, series.Bars, 1)
	assert.InDelta(t, 101, series.Bars[0].Close, 1e-9)
}

func TestGetHistoryNotFound(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 404",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "chart error payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"chart":{"result":null,
					"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			from, to := dateRange()
			_, err := client.GetHistory(context.Background(), "BOGUS", from, to)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestGetHistoryEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	from, to := dateRange()
	series, err := client.GetHistory(context.Background(), "AAPL", from, to)
	require.NoError(t, err)
	assert.Empty(t, series.Bars, "no rows is not an error at the client boundary")
}

func TestGetHistoryServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	})

	from, to := dateRange()
	_, err := client.GetHistory(context.Background(), "AAPL", from, to)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestGetHistoryMalformedPayload(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":`)
	})

	from, to := dateRange()
	_, err := client.GetHistory(context.Background(), "AAPL", from, to)
	assert.Error(t, err)
}

func TestGetHistoryMisalignedArrays(t *testing.T) {
	day1 := time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC).Unix()
	payload := fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"AAPL"},
		"timestamp":[%d],
		"indicators":{"quote":[{"open":[100,101],"high":[102],"low":[99],
		"close":[101],"volume":[500]}]}}],"error":null}}`, day1)

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload)
	})

	from, to := dateRange()
	_, err := client.GetHistory(context.Background(), "AAPL", from, to)
	assert.Error(t, err)
}

func TestGetHistoryHonorsContextTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	from, to := dateRange()
	_, err := client.GetHistory(ctx, "AAPL", from, to)
	assert.Error(t, err)
}
