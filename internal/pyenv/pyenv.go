// Package pyenv manages the virtual environments the procedures build and
// test in. Removal goes through a path guard so a bad descriptor can never
// point the cleanup step outside the project root.
package pyenv

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"

	"github.com/ottojp/ccdev/internal/executor"
)

// Env is one virtual environment directory under a project root.
type Env struct {
	Root string // absolute project root
	Dir  string // environment directory, relative to Root
}

// New returns the environment at dir under root.
func New(root, dir string) Env {
	return Env{Root: root, Dir: dir}
}

// Path returns the absolute environment directory.
func (e Env) Path() string {
	return filepath.Join(e.Root, e.Dir)
}

// Python returns the path of the interpreter inside the environment.
func (e Env) Python() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(e.Path(), "Scripts", "python.exe")
	}
	return filepath.Join(e.Path(), "bin", "python")
}

// Exists reports whether the environment directory is present.
func (e Env) Exists() bool {
	fi, err := os.Stat(e.Path())
	return err == nil && fi.IsDir()
}

// Remove deletes the environment directory. Removing a missing directory is
// not an error, so cleanup stays idempotent.
func (e Env) Remove() error {
	if err := GuardRemoval(e.Root, e.Path()); err != nil {
		return err
	}
	if err := os.RemoveAll(e.Path()); err != nil {
		return errors.Wrapf(err, "remove %s", e.Dir)
	}
	return nil
}

// Create makes a fresh environment with the system interpreter. The caller
// removes any prior directory first; venv tolerates an existing one but the
// procedures never rely on that.
func (e Env) Create(ctx context.Context, r executor.Runner) error {
	py := Interpreter(r)
	if py == "" {
		return errors.New("no python interpreter found on PATH")
	}
	res, err := r.Run(ctx, e.Root, py, "-m", "venv", e.Dir)
	if err != nil {
		return errors.Wrapf(err, "create venv %s", e.Dir)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("create venv %s: %s", e.Dir, firstLine(res.Stderr))
	}
	return nil
}

// PipInstall installs packages into the environment with its own pip.
func (e Env) PipInstall(ctx context.Context, r executor.Runner, pkgs ...string) error {
	args := append([]string{"-m", "pip", "install"}, pkgs...)
	res, err := r.Run(ctx, e.Root, e.Python(), args...)
	if err != nil {
		return errors.Wrapf(err, "pip install %s", strings.Join(pkgs, " "))
	}
	if res.ExitCode != 0 {
		return errors.Errorf("pip install %s: %s", strings.Join(pkgs, " "), firstLine(res.Stderr))
	}
	return nil
}

// UpgradeToolchain upgrades the packaging toolchain inside the environment.
func (e Env) UpgradeToolchain(ctx context.Context, r executor.Runner) error {
	res, err := r.Run(ctx, e.Root, e.Python(), "-m", "pip", "install", "--upgrade", "pip", "build", "wheel")
	if err != nil {
		return errors.Wrap(err, "upgrade packaging toolchain")
	}
	if res.ExitCode != 0 {
		return errors.Errorf("upgrade packaging toolchain: %s", firstLine(res.Stderr))
	}
	return nil
}

// RunPython executes the environment interpreter with args in the project
// root.
func (e Env) RunPython(ctx context.Context, r executor.Runner, args ...string) (executor.Result, error) {
	return r.Run(ctx, e.Root, e.Python(), args...)
}

// Interpreter returns the system python executable name, preferring
// python3, or "" when none is available.
func Interpreter(r executor.Runner) string {
	for _, name := range []string{"python3", "python"} {
		if r.Available(name) {
			return name
		}
	}
	return ""
}

// GuardRemoval rejects removal targets that are not strictly inside root.
// It is the only gate in front of os.RemoveAll in this package.
func GuardRemoval(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return errors.Wrap(err, "resolve project root")
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrap(err, "resolve removal target")
	}
	if absTarget == absRoot {
		return errors.Errorf("refusing to remove the project root %s", absRoot)
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Errorf("refusing to remove %s: outside the project root", absTarget)
	}
	if absTarget == string(filepath.Separator) {
		return errors.New("refusing to remove the filesystem root")
	}
	return nil
}

// RemoveDir removes an arbitrary directory under root through the same
// guard, used for the build-output directory.
func RemoveDir(root, dir string) error {
	target := filepath.Join(root, dir)
	if err := GuardRemoval(root, target); err != nil {
		return err
	}
	if err := os.RemoveAll(target); err != nil {
		return errors.Wrapf(err, "remove %s", dir)
	}
	return nil
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "no output"
	}
	return s
}
