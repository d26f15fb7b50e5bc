// Package executor provides command execution functionality.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// ErrToolMissing reports that the requested executable could not be found
// on PATH. Callers use it to tell "tool absent" apart from "tool ran and
// reported findings".
var ErrToolMissing = errors.New("tool not found")

// Result holds the captured output and exit code of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner is an interface for executing external commands. It allows tests
// to inject fake implementations without running real processes.
type Runner interface {
	// Run executes name with args in cwd (or the current directory when cwd
	// is empty). A non-zero exit status is reported through Result.ExitCode
	// with a nil error; errors are reserved for commands that could not run
	// at all.
	Run(ctx context.Context, cwd string, name string, args ...string) (Result, error)
	// Available reports whether the named executable can be found on PATH.
	Available(name string) bool
}

// Executor runs external commands on the local host.
type Executor struct {
	DryRun  bool
	Verbose bool
	Echo    io.Writer // verbose command echo target, defaults to io.Discard
}

// New returns a Runner backed by the real Executor implementation.
func New(dry, verbose bool, echo io.Writer) Runner {
	if echo == nil {
		echo = io.Discard
	}
	return &Executor{DryRun: dry, Verbose: verbose, Echo: echo}
}

// Available reports whether name resolves on PATH.
func (e *Executor) Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes the command, capturing stdout and stderr. Exit status
// handling follows the convention of Result: a process that started and
// exited non-zero is not an error, a process that could not start is.
// A missing executable is mapped to ErrToolMissing with exit code 127.
func (e *Executor) Run(ctx context.Context, cwd string, name string, args ...string) (Result, error) {
	if e.Verbose || e.DryRun {
		_, _ = fmt.Fprintf(e.Echo, "-> %s %s\n", name, strings.Join(args, " "))
	}
	if e.DryRun {
		return Result{}, nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if cwd != "" {
		cmd.Dir = cwd
	}
	var bout, berr bytes.Buffer
	cmd.Stdout = &bout
	cmd.Stderr = &berr

	err := cmd.Run()
	res := Result{Stdout: bout.Bytes(), Stderr: berr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
		res.ExitCode = 127
		return res, fmt.Errorf("%w: %s", ErrToolMissing, name)
	}

	res.ExitCode = 1
	return res, fmt.Errorf("run %s: %w", name, err)
}

// RunLine splits a single shell-quoted command line into tokens and runs it.
// Used for user-declared extra checks in the project descriptor.
func RunLine(ctx context.Context, r Runner, cwd string, line string) (Result, error) {
	line = Sanitize(line)
	if err := ValidateCommand(line); err != nil {
		return Result{}, err
	}
	toks, err := shellquote.Split(line)
	if err != nil {
		// Fall back to simple whitespace splitting if the splitter fails.
		toks = strings.Fields(line)
	}
	if len(toks) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}
	return r.Run(ctx, cwd, toks[0], toks[1:]...)
}

// Sanitize normalizes common unicode characters that often get inserted by
// editors (smart quotes, NBSP, zero-width spaces) and removes embedded NUL
// and other invisible runes.
func Sanitize(s string) string {
	r := strings.NewReplacer(
		"‘", "'", // left single quote
		"’", "'", // right single quote
		"“", "\"", // left double quote
		"”", "\"", // right double quote
		" ", " ", // NO-BREAK SPACE
		"​", "", // zero width space
		"‎", "", // left-to-right mark
		"‏", "", // right-to-left mark
	)
	rp := r.Replace(s)
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, rp)
}

// ValidateCommand checks for characters that will cause command execution
// to fail (newlines and control characters) and returns an error describing
// the problem if one is found.
func ValidateCommand(s string) error {
	if strings.Contains(s, "\n") {
		return fmt.Errorf("invalid command: contains newline characters; each command must be a single line")
	}
	if strings.IndexFunc(s, func(r rune) bool { return r == 0 || (r < 32 && r != '\t') || r == 0x7f }) != -1 {
		return fmt.Errorf("invalid command: contains control characters; remove non-printable characters")
	}
	return nil
}
