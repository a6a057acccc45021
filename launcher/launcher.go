// Package launcher starts game executables as detached OS processes.
package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"gamelib/db"
	"gamelib/models"

	"go.uber.org/zap"
)

var (
	ErrNoCommand         = errors.New("game has no command")
	ErrOutsideAllowedDir = errors.New("command outside allowed directory")
	ErrCommandNotFound   = errors.New("executable not found")
)

// Launcher resolves game commands against the content layout and spawns them.
type Launcher struct {
	layout db.Layout
}

func New(layout db.Layout) *Launcher {
	return &Launcher{layout: layout}
}

// Spec is a fully resolved launch: the absolute executable path and its arguments.
type Spec struct {
	Path string
	Args []string
	Dir  string
}

// Resolve turns a game record into a launch Spec. A command that is a script
// tag ("sh", "bat") points at the game's script in the content directory;
// anything else is taken as an executable path. When the record carries
// allowed_dir, the resolved path must lie inside it.
func (l *Launcher) Resolve(rec models.Record) (Spec, error) {
	command := strings.TrimSpace(rec.String("command"))
	if command == "" {
		return Spec{}, ErrNoCommand
	}

	var path string
	if ext, err := db.NormalizeCommand(command); err == nil {
		id := rec.ID()
		if !db.SafeID(id) {
			return Spec{}, fmt.Errorf("game id %q: %w", id, db.ErrInvalidID)
		}
		path = l.layout.ScriptPath(id, ext)
	} else {
		path = command
	}

	abs, err := canonicalPath(path)
	if err != nil {
		return Spec{}, fmt.Errorf("failed to resolve command path: %w", err)
	}

	if allowed := strings.TrimSpace(rec.String("allowed_dir")); allowed != "" {
		allowedAbs, err := canonicalPath(allowed)
		if err != nil {
			return Spec{}, fmt.Errorf("failed to resolve allowed_dir: %w", err)
		}
		if !withinDir(abs, allowedAbs) {
			return Spec{}, ErrOutsideAllowedDir
		}
	}

	return Spec{Path: abs, Args: rec.Strings("args"), Dir: filepath.Dir(abs)}, nil
}

// Launch resolves rec and starts it detached, with standard streams discarded.
// It returns once the OS has accepted or rejected the spawn; the child is
// reaped in the background and not tracked further.
func (l *Launcher) Launch(rec models.Record) (int, error) {
	spec, err := l.Resolve(rec)
	if err != nil {
		return 0, err
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	detach(cmd)

	if err := cmd.Start(); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
			return 0, fmt.Errorf("%w: %s", ErrCommandNotFound, spec.Path)
		}
		return 0, fmt.Errorf("failed to start %s: %w", spec.Path, err)
	}

	pid := cmd.Process.Pid
	zap.S().Infow("Launched game", "id", rec.ID(), "path", spec.Path, "pid", pid)

	go func() {
		if err := cmd.Wait(); err != nil {
			zap.S().Debugw("Game process exited", "id", rec.ID(), "pid", pid, "error", err)
		}
	}()
	return pid, nil
}

// canonicalPath makes p absolute and resolves symlinks when the target exists.
func canonicalPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

func withinDir(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(dir, string(filepath.Separator))+string(filepath.Separator))
}
