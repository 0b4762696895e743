// Copyright 2026 Peter Edge
//
// All rights reserved.

package questrade

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bufdev/qtgains/internal/pkg/backoff"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const sampleActivities = `{
  "activities": [
    {
      "tradeDate": "2021-06-10T00:00:00.000000-04:00",
      "transactionDate": "2021-06-14T00:00:00.000000-04:00",
      "settlementDate": "2021-06-14T00:00:00.000000-04:00",
      "action": "Buy",
      "symbol": "XEQT.TO",
      "symbolId": 30089042,
      "description": "ISHARES CORE EQUITY ETF PORTFOLIO",
      "currency": "CAD",
      "quantity": 10,
      "price": 27.5,
      "grossAmount": -275,
      "commission": -4.95,
      "netAmount": -279.95,
      "type": "Trades"
    },
    {
      "tradeDate": "2021-06-20T00:00:00.000000-04:00",
      "transactionDate": "2021-06-20T00:00:00.000000-04:00",
      "settlementDate": "2021-06-20T00:00:00.000000-04:00",
      "action": "",
      "symbol": "",
      "symbolId": 0,
      "description": "INTEREST",
      "currency": "CAD",
      "quantity": 0,
      "price": 0,
      "grossAmount": 0,
      "commission": 0,
      "netAmount": 0.12,
      "type": "Interest"
    }
  ]
}`

func TestGetActivities(t *testing.T) {
	t.Parallel()
	startTime := time.Date(2021, time.June, 1, 0, 0, 0, 0, time.FixedZone("EDT", -4*60*60))
	endTime := startTime.AddDate(0, 0, 30)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/accounts/12345678/activities", r.URL.Path)
		require.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		require.Equal(t, "2021-06-01T00:00:00-04:00", r.URL.Query().Get("startTime"))
		require.Equal(t, "2021-07-01T00:00:00-04:00", r.URL.Query().Get("endTime"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleActivities))
	}))
	t.Cleanup(server.Close)

	client := NewClient(slog.New(slog.DiscardHandler), ClientWithHTTPClient(server.Client()))
	activities, err := client.GetActivities(context.Background(), testCredential(server), "12345678", startTime, endTime)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	buy := activities[0]
	require.Equal(t, "Buy", buy.Action)
	require.Equal(t, "XEQT.TO", buy.Symbol)
	require.Equal(t, "2021-06-14T00:00:00.000000-04:00", buy.SettlementDate)
	require.True(t, decimal.NewFromInt(10).Equal(buy.Quantity))
	require.True(t, decimal.RequireFromString("-279.95").Equal(buy.NetAmount))
	require.Equal(t, "Interest", activities[1].Type)
}

func TestGetActivitiesTransportError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":1017,"message":"Access token is invalid"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client := NewClient(slog.New(slog.DiscardHandler), ClientWithHTTPClient(server.Client()))
	_, err := client.GetActivities(context.Background(), testCredential(server), "12345678", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorContains(t, err, "401")
}

func TestGetActivitiesUnreachable(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.NotFoundHandler())
	credential := testCredential(server)
	server.Close()

	client := NewClient(slog.New(slog.DiscardHandler))
	_, err := client.GetActivities(context.Background(), credential, "12345678", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrTransport)
}

func TestGetActivitiesDecodeError(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"activities": [{"quantity": "ten"}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(slog.New(slog.DiscardHandler), ClientWithHTTPClient(server.Client()))
	_, err := client.GetActivities(context.Background(), testCredential(server), "12345678", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrDecode)
}

func TestGetActivitiesRetriesRateLimit(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"activities": []}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(
		slog.New(slog.DiscardHandler),
		ClientWithHTTPClient(server.Client()),
		ClientWithRetryPolicy(backoff.Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}),
	)
	activities, err := client.GetActivities(context.Background(), testCredential(server), "12345678", time.Now(), time.Now())
	require.NoError(t, err)
	require.Empty(t, activities)
	require.Equal(t, int32(2), calls.Load())
}

func TestGetActivitiesNoRetryByDefault(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewClient(slog.New(slog.DiscardHandler), ClientWithHTTPClient(server.Client()))
	_, err := client.GetActivities(context.Background(), testCredential(server), "12345678", time.Now(), time.Now())
	require.ErrorIs(t, err, ErrTransport)
	require.Equal(t, int32(1), calls.Load())
}

func TestGetActivitiesRequiresCredential(t *testing.T) {
	t.Parallel()
	client := NewClient(slog.New(slog.DiscardHandler))
	_, err := client.GetActivities(context.Background(), Credential{APIServer: "http://localhost/"}, "12345678", time.Now(), time.Now())
	require.Error(t, err)
}

func testCredential(server *httptest.Server) Credential {
	return Credential{
		AccessToken: "access",
		APIServer:   server.URL + "/",
	}
}
