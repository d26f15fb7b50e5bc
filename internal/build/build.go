// Package build implements the build-and-test procedure: produce an
// installable wheel from the source tree and prove it installs and imports
// in a freshly created environment. Every step is fail-fast except the
// steps documented as best-effort (the service config probe).
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/pyenv"
	"github.com/ottojp/ccdev/internal/report"
	"github.com/ottojp/ccdev/internal/serviceconfig"
	"github.com/ottojp/ccdev/internal/smoke"
)

// Procedure wires the build-and-test run.
type Procedure struct {
	Root    string
	Project project.Config
	Runner  executor.Runner
	Report  *report.Reporter
	Log     zerolog.Logger
	// DryRun previews the commands; filesystem state is neither removed nor
	// inspected, so the procedure stops after the build step.
	DryRun bool
}

// Run executes the full procedure. The returned error maps to a non-zero
// process exit.
func (p *Procedure) Run(ctx context.Context) error {
	buildEnv := pyenv.New(p.Root, p.Project.Env.BuildDir)
	testEnv := pyenv.New(p.Root, p.Project.Env.TestDir)

	p.Report.Step("cleaning previous test environment and build output")
	if p.DryRun {
		p.Report.Info("would remove %s and %s", p.Project.Env.TestDir, p.Project.Env.DistDir)
	} else if err := p.clean(testEnv); err != nil {
		return err
	}

	p.Report.Step("preparing build environment (%s)", p.Project.Env.BuildDir)
	if err := p.ensureBuildEnv(ctx, buildEnv); err != nil {
		return err
	}

	p.Report.Step("building %s", p.Project.Package.Name)
	if err := p.buildPackage(ctx, buildEnv); err != nil {
		return err
	}

	if p.DryRun {
		p.Report.Info("dry-run: skipping artifact check, install, and smoke test")
		return nil
	}

	wheel, err := p.findWheel()
	if err != nil {
		return err
	}
	p.Report.Success("wheel: %s", filepath.Base(wheel))

	p.Report.Step("creating disposable test environment (%s)", p.Project.Env.TestDir)
	if err := testEnv.Create(ctx, p.Runner); err != nil {
		return err
	}

	p.Report.Step("installing artifact and plugins")
	pkgs := append([]string{wheel}, p.Project.Package.Plugins...)
	if err := testEnv.PipInstall(ctx, p.Runner, pkgs...); err != nil {
		return err
	}

	p.Report.Step("running smoke test")
	out, err := smoke.Run(ctx, p.Runner, testEnv, p.Project.Package.Module, p.Project.Package.Object)
	if err != nil {
		p.Log.Error().Err(err).Msg("smoke test failed")
		return err
	}
	p.reportSmoke(out)

	p.probeServiceConfig()
	p.printNextSteps()
	p.Log.Info().Str("wheel", filepath.Base(wheel)).Str("version", out.Version).Msg("build procedure complete")
	return nil
}

// Verify runs the reduced build+install+import check used as the quality
// gate's only fatal step: build the wheel, install it (no plugins) into a
// fresh test environment, and import it.
func (p *Procedure) Verify(ctx context.Context) error {
	buildEnv := pyenv.New(p.Root, p.Project.Env.BuildDir)
	testEnv := pyenv.New(p.Root, p.Project.Env.TestDir)

	if err := p.clean(testEnv); err != nil {
		return err
	}
	if err := p.ensureBuildEnv(ctx, buildEnv); err != nil {
		return err
	}
	if err := p.buildPackage(ctx, buildEnv); err != nil {
		return err
	}
	wheel, err := p.findWheel()
	if err != nil {
		return err
	}
	if err := testEnv.Create(ctx, p.Runner); err != nil {
		return err
	}
	if err := testEnv.PipInstall(ctx, p.Runner, wheel); err != nil {
		return err
	}
	out, err := smoke.Run(ctx, p.Runner, testEnv, p.Project.Package.Module, "")
	if err != nil {
		return err
	}
	p.Report.Success("package builds and imports (version %s)", orUnknown(out.Version))
	return nil
}

func (p *Procedure) clean(testEnv pyenv.Env) error {
	if err := testEnv.Remove(); err != nil {
		return err
	}
	if err := pyenv.RemoveDir(p.Root, p.Project.Env.DistDir); err != nil {
		return err
	}
	return nil
}

func (p *Procedure) ensureBuildEnv(ctx context.Context, env pyenv.Env) error {
	if !env.Exists() {
		if err := env.Create(ctx, p.Runner); err != nil {
			return err
		}
	}
	return env.UpgradeToolchain(ctx, p.Runner)
}

func (p *Procedure) buildPackage(ctx context.Context, env pyenv.Env) error {
	res, err := env.RunPython(ctx, p.Runner, "-m", "build", "--outdir", p.Project.Env.DistDir)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		p.Log.Error().Int("exit", res.ExitCode).Msg("package build failed")
		return fmt.Errorf("package build failed (exit %d): %s", res.ExitCode, tail(res.Stderr))
	}
	return nil
}

// findWheel returns the newest wheel in the build-output directory. No
// wheel after a successful build step is fatal before any install happens.
func (p *Procedure) findWheel() (string, error) {
	pattern := filepath.Join(p.Root, p.Project.Env.DistDir, "*.whl")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no wheel artifact in %s after build", p.Project.Env.DistDir)
	}
	newest := matches[0]
	newestTime := modTime(newest)
	for _, m := range matches[1:] {
		if mt := modTime(m); mt.After(newestTime) {
			newest, newestTime = m, mt
		}
	}
	return newest, nil
}

func (p *Procedure) reportSmoke(out smoke.Outcome) {
	if out.Version != "" {
		p.Report.Success("package imports, version %s", out.Version)
	} else {
		p.Report.Success("package imports")
	}
	for _, line := range strings.Split(out.Output, "\n") {
		if strings.Contains(line, "construction failed as expected") {
			p.Report.Info("%s", line)
		}
	}
}

func (p *Procedure) probeServiceConfig() {
	path := filepath.Join(p.Root, p.Project.Service.ConfigFile)
	res := serviceconfig.Probe(path)
	switch {
	case res.Missing:
		p.Report.Warn("service config %s not found; the service will need one to run", p.Project.Service.ConfigFile)
	case res.Malformed:
		p.Report.Warn("service config %s is not valid JSON: %v", p.Project.Service.ConfigFile, res.Err)
	default:
		p.Report.Success("service config %s is well-formed JSON", p.Project.Service.ConfigFile)
	}
	for _, w := range res.Warnings {
		p.Report.Warn("service config: %s", w)
	}
}

func (p *Procedure) printNextSteps() {
	py := pyenv.New(p.Root, p.Project.Env.TestDir).Python()
	p.Report.Plain("")
	p.Report.Plain("Next steps:")
	p.Report.Plain("  %s -m carconnectivity %s", py, p.Project.Service.ConfigFile)
	p.Report.Plain("  ccdev check      # quality and security gate")
	p.Report.Plain("  ccdev release    # cut a version tag from %s", p.Project.Release.Trunk)
}

func modTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	lines := strings.Split(s, "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
