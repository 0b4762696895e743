// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package questrade provides a client for the Questrade REST API.
//
// Two endpoints are used:
//  1. The OAuth2 token endpoint on login.questrade.com, which exchanges a
//     single-use refresh token for an access token, a new refresh token, and
//     the API server URL to use for the session.
//  2. The account activities endpoint on the API server, which returns the
//     activities of an account for a time range. Questrade rejects ranges
//     longer than about 31 days, so callers page through history in windows.
//
// See https://www.questrade.com/api/documentation for details.
package questrade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bufdev/qtgains/internal/pkg/backoff"
	"github.com/shopspring/decimal"
)

var (
	// ErrTransport wraps network failures and non-success HTTP statuses.
	ErrTransport = errors.New("questrade transport error")
	// ErrDecode wraps response bodies that are not valid JSON of the expected shape.
	ErrDecode = errors.New("questrade decode error")
)

// Credential is what the API server requires to authorize a request.
type Credential struct {
	// AccessToken is the bearer token.
	AccessToken string
	// APIServer is the base URL of the API server, with a trailing slash
	// (e.g., "https://api01.iq.questrade.com/").
	APIServer string
}

// Activity is a single account activity as returned by the activities endpoint.
type Activity struct {
	TradeDate       string          `json:"tradeDate"`
	TransactionDate string          `json:"transactionDate"`
	SettlementDate  string          `json:"settlementDate"`
	Action          string          `json:"action"`
	Symbol          string          `json:"symbol"`
	SymbolID        int64           `json:"symbolId"`
	Description     string          `json:"description"`
	Currency        string          `json:"currency"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	GrossAmount     decimal.Decimal `json:"grossAmount"`
	Commission      decimal.Decimal `json:"commission"`
	NetAmount       decimal.Decimal `json:"netAmount"`
	Type            string          `json:"type"`
}

// Client is the interface for reading account data from the API server.
type Client interface {
	// GetActivities returns the activities of the account in [startTime, endTime),
	// in the order the API returns them.
	//
	// Failures to reach the server or non-200 responses wrap ErrTransport.
	// Bodies that cannot be decoded wrap ErrDecode.
	GetActivities(ctx context.Context, credential Credential, accountID string, startTime time.Time, endTime time.Time) ([]Activity, error)
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*client)

// ClientWithHTTPClient sets the HTTP client to use for requests.
func ClientWithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *client) {
		c.httpClient = httpClient
	}
}

// ClientWithRetryPolicy sets the retry policy for rate-limited (429) and
// server-side (5xx) failures.
//
// The default is backoff.NoRetry.
func ClientWithRetryPolicy(policy backoff.Policy) ClientOption {
	return func(c *client) {
		c.retryPolicy = policy
	}
}

// NewClient creates a new API client. The logger is required.
func NewClient(logger *slog.Logger, options ...ClientOption) Client {
	c := &client{
		logger:      logger,
		httpClient:  http.DefaultClient,
		retryPolicy: backoff.NoRetry,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// *** PRIVATE ***

type client struct {
	logger      *slog.Logger
	httpClient  *http.Client
	retryPolicy backoff.Policy
}

// activitiesResponse is the JSON response of the activities endpoint.
type activitiesResponse struct {
	Activities []Activity `json:"activities"`
}

func (c *client) GetActivities(ctx context.Context, credential Credential, accountID string, startTime time.Time, endTime time.Time) ([]Activity, error) {
	if credential.AccessToken == "" {
		return nil, errors.New("access token is required")
	}
	if accountID == "" {
		return nil, errors.New("account ID is required")
	}
	reqURL := fmt.Sprintf("%sv1/accounts/%s/activities", credential.APIServer, url.PathEscape(accountID))
	query := url.Values{}
	query.Set("startTime", startTime.Format(time.RFC3339))
	query.Set("endTime", endTime.Format(time.RFC3339))
	reqURL += "?" + query.Encode()
	return backoff.Retry(ctx, c.retryPolicy,
		func(ctx context.Context, attempt int) ([]Activity, bool, error) {
			if attempt > 0 {
				c.logger.Info("retrying activities request", "attempt", attempt+1)
			}
			c.logger.Debug("activities request", "account_id", accountID, "start_time", startTime, "end_time", endTime)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
			if err != nil {
				return nil, false, err
			}
			req.Header.Set("Authorization", "Bearer "+credential.AccessToken)
			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, false, fmt.Errorf("%w: %w", ErrTransport, err)
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, false, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
			}
			if resp.StatusCode != http.StatusOK {
				retryable := isRetryableStatus(resp.StatusCode)
				if retryable {
					c.logger.Warn("transient questrade error, will retry", "status", resp.StatusCode)
				}
				return nil, retryable, fmt.Errorf("%w: unexpected status %d: %s", ErrTransport, resp.StatusCode, string(body))
			}
			var activitiesResp activitiesResponse
			if err := json.Unmarshal(body, &activitiesResp); err != nil {
				return nil, false, fmt.Errorf("%w: parsing response: %w", ErrDecode, err)
			}
			return activitiesResp.Activities, false, nil
		},
	)
}

// isRetryableStatus returns true for rate limiting and server-side failures.
func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError
}
