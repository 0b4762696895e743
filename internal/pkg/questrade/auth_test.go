// Copyright 2026 Peter Edge
//
// All rights reserved.

package questrade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefresh(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		require.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		require.Equal(t, "old-refresh", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "access_token": "new-access",
  "token_type": "Bearer",
  "expires_in": 1800,
  "refresh_token": "new-refresh",
  "api_server": "https://api01.iq.questrade.com/"
}`))
	}))
	t.Cleanup(server.Close)

	authenticator := NewAuthenticator(
		AuthenticatorWithHTTPClient(server.Client()),
		AuthenticatorWithLoginURL(server.URL+"/oauth2/token"),
	)
	token, err := authenticator.Refresh(context.Background(), "old-refresh")
	require.NoError(t, err)
	require.Equal(t, "new-access", token.AccessToken)
	require.Equal(t, "new-refresh", token.RefreshToken)
	require.Equal(t, "https://api01.iq.questrade.com/", token.APIServer)
	require.False(t, token.Expiry.IsZero())
	require.Equal(t, Credential{AccessToken: "new-access", APIServer: "https://api01.iq.questrade.com/"}, token.Credential())
}

func TestRefreshMissingAPIServer(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "a", "token_type": "Bearer", "expires_in": 1800, "refresh_token": "r"}`))
	}))
	t.Cleanup(server.Close)

	authenticator := NewAuthenticator(
		AuthenticatorWithHTTPClient(server.Client()),
		AuthenticatorWithLoginURL(server.URL),
	)
	_, err := authenticator.Refresh(context.Background(), "old-refresh")
	require.ErrorContains(t, err, "api_server")
}

func TestRefreshRejected(t *testing.T) {
	t.Parallel()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	authenticator := NewAuthenticator(
		AuthenticatorWithHTTPClient(server.Client()),
		AuthenticatorWithLoginURL(server.URL),
	)
	_, err := authenticator.Refresh(context.Background(), "used-refresh")
	require.Error(t, err)
}

func TestRefreshRequiresToken(t *testing.T) {
	t.Parallel()
	_, err := NewAuthenticator().Refresh(context.Background(), "")
	require.Error(t, err)
}
