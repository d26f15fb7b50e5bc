// Package gate runs the quality-and-security battery against the source
// tree. The gate is a diagnostic aggregator: a missing tool or a tool that
// reports findings degrades to a warning, and only the final
// build-install-import check decides the exit code.
package gate

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ottojp/ccdev/internal/executor"
	"github.com/ottojp/ccdev/internal/project"
	"github.com/ottojp/ccdev/internal/report"
)

// ToolCheck is one entry of the fixed battery.
type ToolCheck struct {
	Name string
	Tool string
	Args []string
	// Informational checks never count as findings; their non-zero results
	// are printed at info level (the second flake8 pass).
	Informational bool
}

// Battery returns the fixed, ordered list of diagnostic checks.
func Battery() []ToolCheck {
	return []ToolCheck{
		{Name: "secret scan (gitleaks)", Tool: "gitleaks", Args: []string{"detect", "--no-banner", "--redact"}},
		{Name: "formatting (black)", Tool: "black", Args: []string{"--check", "."}},
		{Name: "import order (isort)", Tool: "isort", Args: []string{"--check-only", "."}},
		{Name: "lint, strict (flake8)", Tool: "flake8", Args: []string{".", "--count", "--select=E9,F63,F7,F82", "--show-source", "--statistics"}},
		{Name: "lint, informational (flake8)", Tool: "flake8", Args: []string{".", "--count", "--exit-zero", "--max-complexity=10", "--max-line-length=127", "--statistics"}, Informational: true},
		{Name: "types (mypy)", Tool: "mypy", Args: []string{"src"}},
		{Name: "lint, advanced (pylint)", Tool: "pylint", Args: []string{"src"}},
		{Name: "security (bandit)", Tool: "bandit", Args: []string{"-r", "src"}},
		{Name: "dependency vulnerabilities (pip-audit)", Tool: "pip-audit", Args: nil},
		{Name: "pre-commit hooks", Tool: "pre-commit", Args: []string{"run", "--all-files"}},
	}
}

// ExpectedFiles returns the fixed list of configuration and workflow files
// the gate reports on, relative to the project root.
func ExpectedFiles(cfg project.Config) []string {
	return []string{
		"pyproject.toml",
		"setup.cfg",
		".pre-commit-config.yaml",
		".gitignore",
		filepath.Join(".github", "workflows", "build.yml"),
		filepath.Join(".github", "workflows", "publish.yml"),
		project.DescriptorName,
		cfg.Service.ConfigFile,
	}
}

// Summary counts the battery results.
type Summary struct {
	Passed   int
	Findings int
	Skipped  int
}

// Gate wires one quality-gate run.
type Gate struct {
	Root    string
	Project project.Config
	Runner  executor.Runner
	Report  *report.Reporter
	Log     zerolog.Logger
	// Verify is the single fatal step: build, install, and import the
	// package. Injected so tests can run the gate without a toolchain.
	Verify func(ctx context.Context) error
}

// Run executes the battery. The returned error comes exclusively from the
// final Verify step; everything else degrades to warnings in the summary.
func (g *Gate) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	for _, chk := range Battery() {
		g.runCheck(ctx, chk, &sum)
	}
	for _, line := range g.Project.Gate.ExtraChecks {
		g.runExtraCheck(ctx, line, &sum)
	}

	g.reportExpectedFiles()

	g.Report.Step("package build and import (fatal)")
	if err := g.Verify(ctx); err != nil {
		g.Report.Error("package build/import failed: %v", err)
		g.Log.Error().Err(err).Msg("gate verify failed")
		g.printSummary(sum)
		return sum, errors.Wrap(err, "package build/import check")
	}

	g.printSummary(sum)
	g.Log.Info().Int("passed", sum.Passed).Int("findings", sum.Findings).Int("skipped", sum.Skipped).Msg("gate complete")
	return sum, nil
}

func (g *Gate) runCheck(ctx context.Context, chk ToolCheck, sum *Summary) {
	g.Report.Step("%s", chk.Name)
	if !g.Runner.Available(chk.Tool) {
		g.Report.Warn("%s not installed, skipping (pip install %s)", chk.Tool, chk.Tool)
		sum.Skipped++
		return
	}
	res, err := g.Runner.Run(ctx, g.Root, chk.Tool, chk.Args...)
	if err != nil {
		if errors.Is(err, executor.ErrToolMissing) {
			g.Report.Warn("%s not installed, skipping", chk.Tool)
			sum.Skipped++
			return
		}
		g.Report.Warn("%s could not run: %v", chk.Tool, err)
		sum.Findings++
		return
	}
	if res.ExitCode != 0 {
		if chk.Informational {
			g.Report.Info("%s reported style findings (informational)", chk.Tool)
			sum.Passed++
			return
		}
		g.Report.Warn("%s reported findings (exit %d)", chk.Tool, res.ExitCode)
		g.Log.Warn().Str("tool", chk.Tool).Int("exit", res.ExitCode).Msg("check findings")
		sum.Findings++
		return
	}
	g.Report.Success("%s clean", chk.Tool)
	sum.Passed++
}

func (g *Gate) runExtraCheck(ctx context.Context, line string, sum *Summary) {
	g.Report.Step("extra check: %s", line)
	res, err := executor.RunLine(ctx, g.Runner, g.Root, line)
	if err != nil {
		if errors.Is(err, executor.ErrToolMissing) {
			g.Report.Warn("not installed, skipping: %s", line)
			sum.Skipped++
			return
		}
		g.Report.Warn("could not run: %v", err)
		sum.Findings++
		return
	}
	if res.ExitCode != 0 {
		g.Report.Warn("reported findings (exit %d)", res.ExitCode)
		sum.Findings++
		return
	}
	g.Report.Success("clean")
	sum.Passed++
}

func (g *Gate) reportExpectedFiles() {
	g.Report.Step("expected configuration and workflow files")
	for _, rel := range ExpectedFiles(g.Project) {
		if _, err := os.Stat(filepath.Join(g.Root, rel)); err == nil {
			g.Report.Success("%s", rel)
		} else {
			g.Report.Warn("%s missing", rel)
		}
	}
}

func (g *Gate) printSummary(sum Summary) {
	g.Report.Plain("")
	g.Report.Plain("Gate summary: %d clean, %d with findings, %d skipped", sum.Passed, sum.Findings, sum.Skipped)
	g.Report.Plain("Remediation:")
	g.Report.Plain("  black .          # reformat")
	g.Report.Plain("  isort .          # fix import order")
	g.Report.Plain("  flake8 .         # list lint findings")
	g.Report.Plain("  mypy src         # type-check")
	g.Report.Plain("  pre-commit run --all-files")
}
