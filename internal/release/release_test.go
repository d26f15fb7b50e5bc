package release

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/report"
)

// gitRunner scripts git (and python) responses keyed by the leading
// arguments of the invocation.
type gitRunner struct {
	branch    string
	porcelain string
	pushExit  int
	calls     [][]string
}

func (g *gitRunner) Run(_ context.Context, _ string, name string, args ...string) (executor.Result, error) {
	g.calls = append(g.calls, append([]string{name}, args...))
	if name != "git" {
		// version read through the build env interpreter
		return executor.Result{Stdout: []byte("0.9.1\n")}, nil
	}
	switch args[0] {
	case "rev-parse":
		return executor.Result{Stdout: []byte(g.branch + "\n")}, nil
	case "status":
		return executor.Result{Stdout: []byte(g.porcelain)}, nil
	case "tag":
		return executor.Result{}, nil
	case "push":
		return executor.Result{ExitCode: g.pushExit, Stderr: []byte("remote rejected")}, nil
	}
	return executor.Result{}, nil
}

func (g *gitRunner) Available(string) bool { return true }

func (g *gitRunner) tagged() bool {
	for _, c := range g.calls {
		if c[0] == "git" && c[1] == "tag" {
			return true
		}
	}
	return false
}

func newProcedure(t *testing.T, gr *gitRunner, version string) *Procedure {
	t.Helper()
	return &Procedure{
		Root:    t.TempDir(),
		Project: project.Default(),
		Runner:  gr,
		Report:  report.New(&bytes.Buffer{}, false),
		Log:     zerolog.Nop(),
		In:      strings.NewReader(""),
		Version: version,
		Yes:     true,
	}
}

func TestValidateVersion(t *testing.T) {
	for _, bad := range []string{"", "1.2", "v1.2.3", "1.2.3-rc1", "1.2.3.4", "a.b.c"} {
		assert.Error(t, ValidateVersion(bad), "expected rejection of %q", bad)
	}
	for _, good := range []string{"1.2.3", "0.0.1", "10.20.30"} {
		assert.NoError(t, ValidateVersion(good), "expected acceptance of %q", good)
	}
}

func TestRunTagsAndPushes(t *testing.T) {
	gr := &gitRunner{branch: "main"}
	p := newProcedure(t, gr, "1.2.3")

	tag, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", tag)

	last := gr.calls[len(gr.calls)-1]
	assert.Equal(t, []string{"git", "push", "origin", "v1.2.3"}, last)
}

func TestRunRejectsNonTrunkBranch(t *testing.T) {
	gr := &gitRunner{branch: "feature/polling"}
	p := newProcedure(t, gr, "1.2.3")

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feature/polling")
	assert.False(t, gr.tagged(), "no tag may be created off trunk")
}

func TestRunRejectsDirtyWorkingTree(t *testing.T) {
	gr := &gitRunner{branch: "main", porcelain: " M src/vehicle.py\n"}
	p := newProcedure(t, gr, "1.2.3")

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uncommitted")
	assert.False(t, gr.tagged())
}

func TestRunRejectsBadVersionInput(t *testing.T) {
	for _, bad := range []string{"", "1.2", "v1.2.3"} {
		gr := &gitRunner{branch: "main"}
		p := newProcedure(t, gr, "")
		p.In = strings.NewReader(bad + "\n")

		_, err := p.Run(context.Background())
		require.Error(t, err, "version %q must be rejected", bad)
		assert.False(t, gr.tagged())
	}
}

func TestRunPromptsWhenNoVersionFlag(t *testing.T) {
	gr := &gitRunner{branch: "main"}
	p := newProcedure(t, gr, "")
	p.In = strings.NewReader("2.0.0\n")

	tag, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.0.0", tag)
}

func TestRunPushFailureKeepsLocalTag(t *testing.T) {
	gr := &gitRunner{branch: "main", pushExit: 1}
	p := newProcedure(t, gr, "1.2.3")

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "push tag v1.2.3")
	// the tag was created before the push failed and is not rolled back
	assert.True(t, gr.tagged())
}

func TestRunConfirmAbort(t *testing.T) {
	gr := &gitRunner{branch: "main"}
	p := newProcedure(t, gr, "1.2.3")
	p.Yes = false
	p.In = strings.NewReader("n\n")

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.False(t, gr.tagged())
}
