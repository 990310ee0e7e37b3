package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ndewijer/Lot-Ledger-Backend/internal/yahoo"
)

// MockYahooServer serves a fixed chart response in place of the Yahoo Finance API.
type MockYahooServer struct {
	*httptest.Server
	// MockResponse is the response to return from chart queries
	MockResponse yahoo.Response
	// QueryCount tracks how many chart queries were served
	QueryCount atomic.Int32
}

// NewMockYahooServer starts a server returning resp for every chart request.
// It is closed when the test completes.
//
// Example usage:
//
//	srv := testutil.NewMockYahooServer(t, testutil.CreateMockYahooResponseForDate(date, 101.5))
//	client := yahoo.NewFinanceClient(srv.URL)
func NewMockYahooServer(t *testing.T, resp yahoo.Response) *MockYahooServer {
	t.Helper()

	m := &MockYahooServer{MockResponse: resp}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		m.QueryCount.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(m.MockResponse)
	}))
	t.Cleanup(m.Close)

	return m
}

// CreateMockYahooResponse creates a mock Yahoo Finance API response with test data.
// The response includes `days` number of days of price data, ending yesterday.
// Each day has realistic OHLCV data suitable for testing.
func CreateMockYahooResponse(days int) yahoo.Response {
	now := time.Now().UTC()
	yesterday := time.Date(now.Year(), now.Month(), now.Day()-1, 0, 0, 0, 0, time.UTC)

	timestamps := make([]int64, days)
	opens := make([]*float64, days)
	highs := make([]*float64, days)
	lows := make([]*float64, days)
	closes := make([]*float64, days)
	volumes := make([]*int64, days)

	// Generate realistic price data for testing
	basePrice := 100.0
	for i := range days {
		date := yesterday.AddDate(0, 0, -days+i+1)
		timestamps[i] = date.Unix()

		dayPrice := basePrice + float64(i)*0.5
		open := dayPrice
		high := dayPrice + 1.0
		low := dayPrice - 0.5
		closePrice := dayPrice + 0.25
		volume := int64(1000000 + i*10000)

		opens[i] = &open
		highs[i] = &high
		lows[i] = &low
		closes[i] = &closePrice
		volumes[i] = &volume
	}

	return chartResponse(timestamps, yahoo.Quote{
		Open:   opens,
		High:   highs,
		Low:    lows,
		Close:  closes,
		Volume: volumes,
	})
}

// CreateMockYahooResponseForDate creates a mock Yahoo response with a single day's data.
// Useful for testing specific date scenarios.
func CreateMockYahooResponseForDate(date time.Time, price float64) yahoo.Response {
	volume := int64(1000000)

	return chartResponse([]int64{date.Unix()}, yahoo.Quote{
		Open:   []*float64{&price},
		High:   []*float64{&price},
		Low:    []*float64{&price},
		Close:  []*float64{&price},
		Volume: []*int64{&volume},
	})
}

func chartResponse(timestamps []int64, quote yahoo.Quote) yahoo.Response {
	return yahoo.Response{
		Chart: yahoo.Chart{
			Result: []yahoo.Result{
				{
					Meta: yahoo.Meta{
						Symbol:           "TEST",
						Currency:         "USD",
						ExchangeName:     "NMS",
						FullExchangeName: "NASDAQ",
						LongName:         "Test Fund Inc.",
						Shortname:        "TEST",
					},
					Timestamp: timestamps,
					Indicators: yahoo.IndicatorsContainer{
						Quote: []yahoo.Quote{quote},
					},
				},
			},
		},
	}
}
