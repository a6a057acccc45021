package launcher

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"gamelib/db"
	"gamelib/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLauncher(t *testing.T) (*Launcher, db.Layout) {
	t.Helper()
	root := t.TempDir()
	layout := db.Layout{MetadataDir: filepath.Join(root, "metadata"), ContentDir: filepath.Join(root, "content")}
	return New(layout), layout
}

func writeScript(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
}

func TestResolve(t *testing.T) {
	l, layout := setupLauncher(t)
	bin := filepath.Join(t.TempDir(), "bin")
	exe := filepath.Join(bin, "game")
	writeScript(t, exe)
	writeScript(t, layout.ScriptPath("g1", "sh"))

	t.Run("Script tag resolves to content dir", func(t *testing.T) {
		spec, err := l.Resolve(models.Record{"id": "g1", "command": ".SH"})
		require.NoError(t, err)
		want, _ := canonicalPath(layout.ScriptPath("g1", "sh"))
		assert.Equal(t, want, spec.Path)
		assert.Equal(t, filepath.Dir(want), spec.Dir)
	})

	t.Run("Absolute path with args", func(t *testing.T) {
		spec, err := l.Resolve(models.Record{"id": "g2", "command": exe, "args": []any{"--fullscreen", 3, "-x", true}})
		require.NoError(t, err)
		want, _ := canonicalPath(exe)
		assert.Equal(t, want, spec.Path)
		assert.Equal(t, []string{"--fullscreen", "3", "-x"}, spec.Args)
	})

	t.Run("Inside allowed dir", func(t *testing.T) {
		_, err := l.Resolve(models.Record{"id": "g2", "command": exe, "allowed_dir": bin})
		assert.NoError(t, err)
	})

	t.Run("Outside allowed dir", func(t *testing.T) {
		_, err := l.Resolve(models.Record{"id": "g2", "command": exe, "allowed_dir": t.TempDir()})
		assert.ErrorIs(t, err, ErrOutsideAllowedDir)
	})

	t.Run("Sibling with shared prefix is outside", func(t *testing.T) {
		_, err := l.Resolve(models.Record{"id": "g2", "command": exe, "allowed_dir": bin[:len(bin)-1]})
		assert.ErrorIs(t, err, ErrOutsideAllowedDir)
	})

	t.Run("Traversal is cleaned before the check", func(t *testing.T) {
		escaped := filepath.Join(bin, "..", "elsewhere", "game")
		_, err := l.Resolve(models.Record{"id": "g2", "command": escaped, "allowed_dir": bin})
		assert.ErrorIs(t, err, ErrOutsideAllowedDir)
	})

	t.Run("No command", func(t *testing.T) {
		_, err := l.Resolve(models.Record{"id": "g3"})
		assert.ErrorIs(t, err, ErrNoCommand)
	})

	t.Run("Unsafe id with script tag", func(t *testing.T) {
		_, err := l.Resolve(models.Record{"id": "../g1", "command": "sh"})
		assert.ErrorIs(t, err, db.ErrInvalidID)
	})
}

func TestLaunch(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	l, layout := setupLauncher(t)
	writeScript(t, layout.ScriptPath("g1", "sh"))

	pid, err := l.Launch(models.Record{"id": "g1", "command": "sh", "args": []any{"a b", "$HOME"}})
	require.NoError(t, err)
	assert.Greater(t, pid, 0)
}

func TestLaunch_NotFound(t *testing.T) {
	l, _ := setupLauncher(t)
	_, err := l.Launch(models.Record{"id": "g1", "command": filepath.Join(t.TempDir(), "missing")})
	assert.ErrorIs(t, err, ErrCommandNotFound)
}

func TestLaunch_OutsideAllowedDirDoesNotSpawn(t *testing.T) {
	l, _ := setupLauncher(t)
	pid, err := l.Launch(models.Record{"id": "g1", "command": "/bin/true", "allowed_dir": t.TempDir()})
	assert.ErrorIs(t, err, ErrOutsideAllowedDir)
	assert.Zero(t, pid)
}
