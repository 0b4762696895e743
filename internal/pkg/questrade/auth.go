// Copyright 2026 Peter Edge
//
// All rights reserved.

package questrade

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// DefaultLoginURL is the Questrade OAuth2 token endpoint for live accounts.
const DefaultLoginURL = "https://login.questrade.com/oauth2/token"

// apiServerKey is the token response field holding the API server URL.
const apiServerKey = "api_server"

// Token is the result of a refresh-token exchange.
type Token struct {
	// AccessToken authorizes requests to APIServer.
	AccessToken string
	// RefreshToken is the replacement refresh token. Questrade refresh tokens
	// are single-use, so this must be persisted before the next exchange.
	RefreshToken string
	// APIServer is the API server assigned to this session.
	APIServer string
	// Expiry is when AccessToken expires.
	Expiry time.Time
}

// Credential returns the credential for API requests.
func (t *Token) Credential() Credential {
	return Credential{
		AccessToken: t.AccessToken,
		APIServer:   t.APIServer,
	}
}

// Authenticator exchanges refresh tokens for access tokens.
type Authenticator interface {
	// Refresh performs the OAuth2 refresh-token grant.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

// AuthenticatorOption is a functional option for configuring the Authenticator.
type AuthenticatorOption func(*authenticator)

// AuthenticatorWithHTTPClient sets the HTTP client to use for token requests.
func AuthenticatorWithHTTPClient(httpClient *http.Client) AuthenticatorOption {
	return func(a *authenticator) {
		a.httpClient = httpClient
	}
}

// AuthenticatorWithLoginURL overrides the token endpoint (e.g., for the
// practice environment).
func AuthenticatorWithLoginURL(loginURL string) AuthenticatorOption {
	return func(a *authenticator) {
		if loginURL != "" {
			a.loginURL = loginURL
		}
	}
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(options ...AuthenticatorOption) Authenticator {
	a := &authenticator{
		httpClient: http.DefaultClient,
		loginURL:   DefaultLoginURL,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// *** PRIVATE ***

type authenticator struct {
	httpClient *http.Client
	loginURL   string
}

func (a *authenticator) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, errors.New("refresh token is required")
	}
	config := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL: a.loginURL,
			// Questrade has no client credentials; everything goes in the form body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	// No access token, so the token source goes straight to the refresh grant.
	oauth2Token, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing questrade token: %w", err)
	}
	apiServer, _ := oauth2Token.Extra(apiServerKey).(string)
	if apiServer == "" {
		return nil, fmt.Errorf("questrade token response is missing %s", apiServerKey)
	}
	if oauth2Token.RefreshToken == "" || oauth2Token.RefreshToken == refreshToken {
		return nil, errors.New("questrade token response did not rotate the refresh token")
	}
	return &Token{
		AccessToken:  oauth2Token.AccessToken,
		RefreshToken: oauth2Token.RefreshToken,
		APIServer:    apiServer,
		Expiry:       oauth2Token.Expiry,
	}, nil
}
