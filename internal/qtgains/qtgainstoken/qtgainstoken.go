// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainstoken stores the Questrade refresh token between runs.
//
// Questrade refresh tokens are single-use: every exchange returns a new one
// and invalidates the old. The current token lives in data/refresh_token
// under the base directory. On the first run, before that file exists, the
// token is read from the QUESTRADE_REFRESH_TOKEN environment variable or,
// failing that, from a .env file in the base directory.
package qtgainstoken

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bufdev/qtgains/internal/qtgains/qtgainspath"
	"github.com/bufdev/qtgains/internal/standard/xos"
	"github.com/joho/godotenv"
)

// RefreshTokenEnvVar is the environment variable holding the initial refresh token.
const RefreshTokenEnvVar = "QUESTRADE_REFRESH_TOKEN"

// Source describes where a refresh token was read from.
type Source string

const (
	// SourceFile is the stored token file.
	SourceFile Source = "file"
	// SourceEnv is the process environment.
	SourceEnv Source = "env"
	// SourceEnvFile is the .env file in the base directory.
	SourceEnvFile Source = "env_file"
)

// ReadRefreshToken returns the current refresh token for the base directory
// and where it came from.
//
// getenv is used to read the environment, typically appext.Container.Env.
func ReadRefreshToken(dirPath string, getenv func(string) string) (string, Source, error) {
	data, err := os.ReadFile(qtgainspath.RefreshTokenFilePath(dirPath))
	if err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token, SourceFile, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("reading refresh token: %w", err)
	}
	if token := getenv(RefreshTokenEnvVar); token != "" {
		return token, SourceEnv, nil
	}
	envFilePath := qtgainspath.EnvFilePath(dirPath)
	envMap, err := godotenv.Read(envFilePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("reading %s: %w", envFilePath, err)
	}
	if token := envMap[RefreshTokenEnvVar]; token != "" {
		return token, SourceEnvFile, nil
	}
	return "", "", fmt.Errorf("no refresh token found, set %s to a refresh token generated in the Questrade App Hub (see \"qtgains --help\" for details)", RefreshTokenEnvVar)
}

// WriteRefreshToken replaces the stored refresh token.
//
// The file is only readable by the current user.
func WriteRefreshToken(dirPath string, refreshToken string) error {
	if refreshToken == "" {
		return errors.New("refresh token is empty")
	}
	if err := xos.WriteFileAtomic(qtgainspath.RefreshTokenFilePath(dirPath), []byte(refreshToken+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing refresh token: %w", err)
	}
	return nil
}
