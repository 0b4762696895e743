// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainscmd provides shared wiring for qtgains commands that need
// trade records (reading the refresh token, authenticating, fetching, caching).
package qtgainscmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"buf.build/go/app/appext"
	"github.com/bufdev/qtgains/internal/pkg/backoff"
	"github.com/bufdev/qtgains/internal/pkg/questrade"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsconfig"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsfetch"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainspath"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainsstore"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainstoken"
	"github.com/bufdev/qtgains/internal/qtgains/qtgainstrade"
)

// DirFlagName is the flag name for the qtgains base directory.
const DirFlagName = "dir"

const (
	retryInitialDelay = 2 * time.Second
	retryMaxDelay     = 30 * time.Second
)

// LoadTradeRecords returns the trade records for the configured account.
//
// If cached is false, the records are fetched from Questrade and saved as a
// new run in the activity cache. If cached is true, the latest saved run is
// returned without any network access.
func LoadTradeRecords(
	ctx context.Context,
	container appext.Container,
	config *qtgainsconfig.Config,
	cached bool,
) (_ []qtgainstrade.TradeRecord, retErr error) {
	logger := container.Logger()
	if err := os.MkdirAll(qtgainspath.CacheDirPath(config.DirPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	store, err := qtgainsstore.Open(qtgainspath.ActivitiesDBFilePath(config.DirPath))
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = errors.Join(retErr, store.Close())
	}()
	if cached {
		run, records, err := store.LoadLatest(ctx, config.AccountID)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded cached activities",
			"run_id", run.RunID,
			"fetched_at", run.FetchedAt.Format(time.RFC3339),
			"records", run.RecordCount,
		)
		return records, nil
	}
	credential, err := Authenticate(ctx, container, config)
	if err != nil {
		return nil, err
	}
	fetcher, err := NewFetcher(container, config)
	if err != nil {
		return nil, err
	}
	records, err := fetcher.Fetch(ctx, credential, config.AccountID, config.StartTime)
	if err != nil {
		return nil, err
	}
	run, err := store.SaveRun(ctx, config.AccountID, config.StartTime, records)
	if err != nil {
		return nil, fmt.Errorf("caching activities: %w", err)
	}
	logger.Info("cached activities", "run_id", run.RunID, "records", run.RecordCount)
	return records, nil
}

// Authenticate exchanges the stored refresh token for an API credential.
//
// Questrade refresh tokens are single-use, so the rotated token is written
// to the data directory before the credential is returned.
func Authenticate(ctx context.Context, container appext.Container, config *qtgainsconfig.Config) (questrade.Credential, error) {
	logger := container.Logger()
	refreshToken, source, err := qtgainstoken.ReadRefreshToken(config.DirPath, container.Env)
	if err != nil {
		return questrade.Credential{}, err
	}
	logger.Debug("read refresh token", "source", string(source))
	authenticator := questrade.NewAuthenticator(questrade.AuthenticatorWithLoginURL(config.LoginURL))
	token, err := authenticator.Refresh(ctx, refreshToken)
	if err != nil {
		return questrade.Credential{}, err
	}
	if err := qtgainstoken.WriteRefreshToken(config.DirPath, token.RefreshToken); err != nil {
		return questrade.Credential{}, fmt.Errorf("saving rotated refresh token: %w", err)
	}
	logger.Info("authenticated", "api_server", token.APIServer, "expires_at", token.Expiry.Format(time.RFC3339))
	return token.Credential(), nil
}

// NewFetcher constructs a Fetcher from the appext container and config.
func NewFetcher(container appext.Container, config *qtgainsconfig.Config) (qtgainsfetch.Fetcher, error) {
	logger := container.Logger()
	client := questrade.NewClient(
		logger,
		questrade.ClientWithRetryPolicy(
			backoff.Policy{
				MaxAttempts:  config.MaxAttempts,
				InitialDelay: retryInitialDelay,
				MaxDelay:     retryMaxDelay,
			},
		),
	)
	return qtgainsfetch.NewFetcher(
		logger,
		client,
		qtgainsfetch.FetcherWithWindowDays(config.WindowDays),
		qtgainsfetch.FetcherWithParallelism(config.Parallelism),
	)
}
