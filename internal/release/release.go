// Package release cuts a version tag from a valid, clean trunk checkout.
// Packaging and publishing happen in CI after the tag push; this procedure
// only validates repository state and produces the tag.
package release

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/pyenv"
	"github.com/ottojp/ccdev/internal/report"
	"github.com/ottojp/ccdev/internal/utils"
)

// versionPattern accepts exactly three dot-separated non-negative integers.
// No leading v, no pre-release or build metadata.
var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// ValidateVersion rejects version strings that do not match major.minor.patch.
func ValidateVersion(v string) error {
	if v == "" {
		return fmt.Errorf("version must not be empty")
	}
	if !versionPattern.MatchString(v) {
		return fmt.Errorf("invalid version %q: expected major.minor.patch (e.g. 1.2.3)", v)
	}
	return nil
}

// Procedure wires one release run.
type Procedure struct {
	Root    string
	Project project.Config
	Runner  executor.Runner
	Report  *report.Reporter
	Log     zerolog.Logger
	In      io.Reader // version prompt input, defaults to os.Stdin via utils
	Version string    // pre-supplied version, skips the prompt when set
	Yes     bool      // skip the confirmation prompt
}

// Run validates the repository state, determines the new version, and
// creates and pushes the tag. Every failed check is fatal; there is no
// rollback if the push fails after the tag exists locally.
func (p *Procedure) Run(ctx context.Context) (string, error) {
	branch, err := p.currentBranch(ctx)
	if err != nil {
		return "", err
	}
	if branch != p.Project.Release.Trunk {
		return "", fmt.Errorf("releases are cut from %q, current branch is %q", p.Project.Release.Trunk, branch)
	}
	p.Report.Success("on trunk branch %s", branch)

	clean, err := p.workingTreeClean(ctx)
	if err != nil {
		return "", err
	}
	if !clean {
		return "", fmt.Errorf("working tree has uncommitted changes; commit or stash them first")
	}
	p.Report.Success("working tree clean")

	if cur := p.currentVersion(ctx); cur != "" {
		p.Report.Info("current version: %s", cur)
	} else {
		p.Report.Warn("current version could not be read from the package")
	}

	version := strings.TrimSpace(p.Version)
	if version == "" {
		version = utils.PromptReader("New version (major.minor.patch)", p.In)
	}
	if err := ValidateVersion(version); err != nil {
		return "", err
	}

	tag := "v" + version
	if !p.Yes && !utils.ConfirmReader(fmt.Sprintf("Tag %s and push to %s?", tag, p.Project.Release.Remote), p.In) {
		return "", fmt.Errorf("release aborted")
	}

	if err := p.git(ctx, "tag", tag); err != nil {
		return "", fmt.Errorf("create tag %s: %w", tag, err)
	}
	p.Report.Success("created tag %s", tag)

	if err := p.git(ctx, "push", p.Project.Release.Remote, tag); err != nil {
		// The local tag stays; print the manual recovery path instead of
		// guessing at compensation.
		p.Report.Error("push failed; the tag exists locally")
		p.Report.Plain("  git push %s %s   # retry", p.Project.Release.Remote, tag)
		p.Report.Plain("  git tag -d %s    # or discard the local tag", tag)
		return "", fmt.Errorf("push tag %s: %w", tag, err)
	}
	p.Report.Success("pushed %s to %s", tag, p.Project.Release.Remote)

	p.Log.Info().Str("tag", tag).Msg("release tagged")
	p.Report.Plain("")
	p.Report.Plain("Next steps:")
	p.Report.Plain("  CI packages and publishes %s from the tag", p.Project.Package.Name)
	p.Report.Plain("  draft release notes: git log --oneline $(git describe --tags --abbrev=0 %s^)..%s", tag, tag)
	return tag, nil
}

func (p *Procedure) currentBranch(ctx context.Context) (string, error) {
	res, err := p.Runner.Run(ctx, p.Root, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("read current branch: %w", err)
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("read current branch: %s", strings.TrimSpace(string(res.Stderr)))
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}

func (p *Procedure) workingTreeClean(ctx context.Context) (bool, error) {
	res, err := p.Runner.Run(ctx, p.Root, "git", "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("read working tree status: %w", err)
	}
	if res.ExitCode != 0 {
		return false, fmt.Errorf("read working tree status: %s", strings.TrimSpace(string(res.Stderr)))
	}
	return strings.TrimSpace(string(res.Stdout)) == "", nil
}

// currentVersion reads the version symbol by executing the package's version
// module in the build environment. Best-effort: an unreadable version is a
// warning, not a failure.
func (p *Procedure) currentVersion(ctx context.Context) string {
	env := pyenv.New(p.Root, p.Project.Env.BuildDir)
	prog := fmt.Sprintf("from %s import __version__; print(__version__)", p.Project.Package.Module)
	res, err := env.RunPython(ctx, p.Runner, "-c", prog)
	if err != nil || res.ExitCode != 0 {
		return ""
	}
	return strings.TrimSpace(string(res.Stdout))
}

func (p *Procedure) git(ctx context.Context, args ...string) error {
	res, err := p.Runner.Run(ctx, p.Root, "git", args...)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(string(res.Stderr)))
	}
	return nil
}
