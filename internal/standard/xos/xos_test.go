// Copyright 2026 Peter Edge
//
// All rights reserved.

package xos

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()
	filePath := filepath.Join(t.TempDir(), "data", "refresh_token")
	require.NoError(t, WriteFileAtomic(filePath, []byte("first"), 0o600))
	require.NoError(t, WriteFileAtomic(filePath, []byte("second"), 0o600))
	data, err := os.ReadFile(filePath)
	require.NoError(t, err)
	require.Equal(t, "second", string(data))
	info, err := os.Stat(filePath)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	// No temporary files are left behind.
	entries, err := os.ReadDir(filepath.Dir(filePath))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestExpandHome(t *testing.T) {
	t.Parallel()
	path, err := ExpandHome("/tmp/qtgains")
	require.NoError(t, err)
	require.Equal(t, "/tmp/qtgains", path)
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	path, err = ExpandHome("~/qtgains")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(homeDir, "qtgains"), path)
}
