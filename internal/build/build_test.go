package build

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/pyenv"
	"github.com/ottojp/ccdev/internal/report"
)

// fakeRunner simulates the interpreter and packaging toolchain on the
// filesystem so procedures can be exercised without Python installed.
type fakeRunner struct {
	root        string
	distDir     string
	calls       [][]string
	wheels      []string // wheel files created when `-m build` runs
	smokeStdout string
	smokeExit   int
}

func (f *fakeRunner) Run(_ context.Context, _ string, name string, args ...string) (executor.Result, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	joined := strings.Join(args, " ")
	switch {
	case strings.HasPrefix(joined, "-m venv"):
		dir := filepath.Join(f.root, args[len(args)-1])
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return executor.Result{}, err
		}
	case strings.HasPrefix(joined, "-m build"):
		dist := filepath.Join(f.root, f.distDir)
		if err := os.MkdirAll(dist, 0o755); err != nil {
			return executor.Result{}, err
		}
		for _, w := range f.wheels {
			if err := os.WriteFile(filepath.Join(dist, w), []byte("wheel"), 0o644); err != nil {
				return executor.Result{}, err
			}
		}
	case len(args) > 0 && args[0] == "-c":
		return executor.Result{Stdout: []byte(f.smokeStdout), ExitCode: f.smokeExit}, nil
	}
	return executor.Result{}, nil
}

func (f *fakeRunner) Available(string) bool { return true }

func newProcedure(t *testing.T) (*Procedure, *fakeRunner) {
	t.Helper()
	root := t.TempDir()
	cfg := project.Default()
	fr := &fakeRunner{
		root:        root,
		distDir:     cfg.Env.DistDir,
		wheels:      []string{"carconnectivity_connector_audi-0.9.1-py3-none-any.whl"},
		smokeStdout: "ccdev-smoke-version:0.9.1\nconstruction failed as expected: no credentials\n",
	}
	p := &Procedure{
		Root:    root,
		Project: cfg,
		Runner:  fr,
		Report:  report.New(&bytes.Buffer{}, false),
		Log:     zerolog.Nop(),
	}
	return p, fr
}

func TestCleanIsIdempotent(t *testing.T) {
	p, _ := newProcedure(t)
	testEnv := pyenv.New(p.Root, p.Project.Env.TestDir)

	require.NoError(t, os.MkdirAll(testEnv.Path(), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(p.Root, p.Project.Env.DistDir), 0o755))

	require.NoError(t, p.clean(testEnv))
	assert.False(t, testEnv.Exists())
	// a second clean with nothing to remove must succeed
	require.NoError(t, p.clean(testEnv))
}

func TestRunHappyPath(t *testing.T) {
	p, fr := newProcedure(t)

	require.NoError(t, p.Run(context.Background()))

	var sawBuild, sawInstall bool
	for _, c := range fr.calls {
		joined := strings.Join(c, " ")
		if strings.Contains(joined, "-m build") {
			sawBuild = true
		}
		if strings.Contains(joined, "-m pip install") && strings.Contains(joined, ".whl") {
			sawInstall = true
			// plugins are installed together with the wheel
			assert.Contains(t, joined, "carconnectivity-plugin-webui")
			assert.Contains(t, joined, "carconnectivity-plugin-mqtt")
			// install runs with the test environment's interpreter
			assert.True(t, strings.HasPrefix(c[0], filepath.Join(p.Root, p.Project.Env.TestDir)), "install used %q", c[0])
		}
	}
	assert.True(t, sawBuild, "expected a build invocation")
	assert.True(t, sawInstall, "expected a wheel install invocation")
}

func TestRunFailsBeforeInstallWhenNoWheel(t *testing.T) {
	p, fr := newProcedure(t)
	fr.wheels = nil

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no wheel artifact")

	for _, c := range fr.calls {
		assert.NotContains(t, strings.Join(c, " "), ".whl", "install must not run without a wheel")
	}
}

func TestRunFatalOnUncaughtSmokeException(t *testing.T) {
	p, fr := newProcedure(t)
	fr.smokeStdout = ""
	fr.smokeExit = 1

	require.Error(t, p.Run(context.Background()))
}

func TestRunCaughtConstructionFailureSucceeds(t *testing.T) {
	p, fr := newProcedure(t)
	fr.smokeStdout = "ccdev-smoke-version:0.9.1\nconstruction failed as expected: invalid credentials\n"
	fr.smokeExit = 0

	require.NoError(t, p.Run(context.Background()))
}

func TestFindWheelPicksNewest(t *testing.T) {
	p, _ := newProcedure(t)
	dist := filepath.Join(p.Root, p.Project.Env.DistDir)
	require.NoError(t, os.MkdirAll(dist, 0o755))

	older := filepath.Join(dist, "pkg-0.9.0-py3-none-any.whl")
	newer := filepath.Join(dist, "pkg-0.9.1-py3-none-any.whl")
	require.NoError(t, os.WriteFile(older, []byte("w"), 0o644))
	require.NoError(t, os.WriteFile(newer, []byte("w"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	got, err := p.findWheel()
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestVerifyInstallsWheelWithoutPlugins(t *testing.T) {
	p, fr := newProcedure(t)
	fr.smokeStdout = "ccdev-smoke-version:0.9.1\n"

	require.NoError(t, p.Verify(context.Background()))

	for _, c := range fr.calls {
		joined := strings.Join(c, " ")
		if strings.Contains(joined, "-m pip install") && strings.Contains(joined, ".whl") {
			assert.NotContains(t, joined, "carconnectivity-plugin", "verify must not install plugins")
		}
	}
}

func TestVerifyNoWheelIsFatal(t *testing.T) {
	p, fr := newProcedure(t)
	fr.wheels = nil

	require.Error(t, p.Verify(context.Background()))
}
