// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package qtgainspath derives file paths from the qtgains base directory.
// All layout is defined here so callers don't duplicate path construction logic.
//
// The base directory (--dir flag) contains:
//
//	qtgains.yaml              Config file
//	.env                      Optional environment file (QUESTRADE_REFRESH_TOKEN)
//	data/refresh_token        The current single-use Questrade refresh token
//	cache/activities.db       Blow-away-safe cache of fetched trade records
package qtgainspath

import "path/filepath"

// ConfigFileName is the well-known config file name within the base directory.
const ConfigFileName = "qtgains.yaml"

// ConfigFilePath returns the path to the config file within the base directory.
func ConfigFilePath(dirPath string) string {
	return filepath.Join(dirPath, ConfigFileName)
}

// EnvFilePath returns the path to the optional .env file within the base directory.
func EnvFilePath(dirPath string) string {
	return filepath.Join(dirPath, ".env")
}

// DataDirPath returns the directory for persistent data.
func DataDirPath(dirPath string) string {
	return filepath.Join(dirPath, "data")
}

// RefreshTokenFilePath returns the path of the stored refresh token.
func RefreshTokenFilePath(dirPath string) string {
	return filepath.Join(DataDirPath(dirPath), "refresh_token")
}

// CacheDirPath returns the directory for cached data.
func CacheDirPath(dirPath string) string {
	return filepath.Join(dirPath, "cache")
}

// ActivitiesDBFilePath returns the path of the sqlite activity cache.
func ActivitiesDBFilePath(dirPath string) string {
	return filepath.Join(CacheDirPath(dirPath), "activities.db")
}
