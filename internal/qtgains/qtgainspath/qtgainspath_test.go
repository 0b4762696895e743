// Copyright 2026 Peter Edge
//
// All rights reserved.

package qtgainspath

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	t.Parallel()
	require.Equal(t, "base/qtgains.yaml", ConfigFilePath("base"))
	require.Equal(t, "base/.env", EnvFilePath("base"))
	require.Equal(t, "base/data/refresh_token", RefreshTokenFilePath("base"))
	require.Equal(t, "base/cache/activities.db", ActivitiesDBFilePath("base"))
}
