// Package testutil provides helpers for testing lifter in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Env holds the isolated paths created by SetupTestEnv.
type Env struct {
	Root      string // temp directory holding everything below
	Config    string // LIFTER_CONFIG, not created
	OutputDir string // LIFTER_DIR, created
}

// SetupTestEnv points the LIFTER_* environment at a fresh temp directory so
// tests never read or write a real configuration or install directory.
//
// Cleanup is handled by t.TempDir and t.Setenv.
func SetupTestEnv(t *testing.T) Env {
	t.Helper()

	root := t.TempDir()
	env := Env{
		Root:      root,
		Config:    filepath.Join(root, "lifter.ini"),
		OutputDir: filepath.Join(root, "bin"),
	}

	t.Setenv("LIFTER_CONFIG", env.Config)
	t.Setenv("LIFTER_DIR", env.OutputDir)
	t.Setenv("LIFTER_WORKERS", "")

	require.NoError(t, os.MkdirAll(env.OutputDir, 0o750), "create test directory")
	return env
}

// WriteConfig writes an ini file at path.
func WriteConfig(t *testing.T, path, contents string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750), "create config dir")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644), "write config")
	return path
}
