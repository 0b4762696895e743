// Copyright 2026 Peter Edge
//
// All rights reserved.

// Package xos provides extensions to the standard os package.
package xos

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a leading ~ in a path to the user's home directory.
func ExpandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDir, path[1:]), nil
}

// WriteFileAtomic writes data to a temporary file in the same directory as
// filePath and renames it into place, so readers see either the old or the
// new contents and never a partial write. The parent directory is created
// if needed.
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) (retErr error) {
	dirPath := filepath.Dir(filePath)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return err
	}
	file, err := os.CreateTemp(dirPath, "."+filepath.Base(filePath)+".*")
	if err != nil {
		return err
	}
	tempPath := file.Name()
	defer func() {
		if retErr != nil {
			retErr = errors.Join(retErr, os.Remove(tempPath))
		}
	}()
	if _, err := file.Write(data); err != nil {
		return errors.Join(err, file.Close())
	}
	if err := file.Chmod(perm); err != nil {
		return errors.Join(err, file.Close())
	}
	if err := file.Sync(); err != nil {
		return errors.Join(err, file.Close())
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tempPath, filePath)
}
