// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package runner invokes the native compiler, or any other external tool
// such as the Python interpreter, as a separate process.
package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
)

// DefaultTimeout bounds a single invocation when the Runner has none.
const DefaultTimeout = 10 * time.Second

// Result is the three-part outcome of one invocation plus its wall time.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

type Runner struct {
	// Command is the executable followed by any fixed leading arguments.
	Command []string
	Timeout time.Duration
	Logger  *slog.Logger
}

// New splits command with shell quoting rules, so a configured value like
// `turkc --strict` or `"/opt/my tools/turkc"` works.
func New(command string, timeout time.Duration) (*Runner, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "runner: command %q", command)
	}
	if len(args) == 0 {
		return nil, errors.WithHint(errors.New("runner: empty command"), "set compiler.command in turkpy.toml")
	}
	return &Runner{Command: args, Timeout: timeout}, nil
}

// DumpAST runs "<compiler> --dump-ast <path>".
//
// On a non-zero exit the result is returned along with an *ExternalToolError
// so callers can show the compiler's stderr.
func (r *Runner) DumpAST(ctx context.Context, path string) (*Result, error) {
	res, err := r.Run(ctx, "--dump-ast", path)
	if err != nil {
		return res, err
	}
	if !json.Valid([]byte(res.Stdout)) {
		return res, &ExternalToolError{
			Kind:     KindMalformed,
			Command:  r.name(),
			ExitCode: res.ExitCode,
			Stderr:   res.Stderr,
			Err:      errors.New("stdout is not valid JSON"),
		}
	}
	return res, nil
}

// Run executes the command with args appended, bounded by the timeout.
func (r *Runner) Run(ctx context.Context, args ...string) (*Result, error) {
	return r.run(ctx, nil, args)
}

// RunInput is Run with stdin fed from input.
// The verify stage uses it to pipe generated code into "python3 -".
func (r *Runner) RunInput(ctx context.Context, input string, args ...string) (*Result, error) {
	return r.run(ctx, strings.NewReader(input), args)
}

func (r *Runner) run(ctx context.Context, stdin io.Reader, args []string) (*Result, error) {
	if len(r.Command) == 0 {
		return nil, errors.AssertionFailedf("runner: no command")
	}
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	argv := append(append([]string{}, r.Command[1:]...), args...)
	cmd := exec.CommandContext(ctx, r.Command[0], argv...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if stdin != nil {
		cmd.Stdin = stdin
	}
	// don't wait forever on grandchildren holding the pipes open
	cmd.WaitDelay = time.Second

	started := time.Now()
	err := cmd.Run()
	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if r.Logger != nil {
		r.Logger.Debug("runner", "command", r.name(), "args", args, "exit", res.ExitCode, "elapsed", res.Duration)
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return res, &ExternalToolError{Kind: KindTimeout, Command: r.name(), ExitCode: -1, Stderr: res.Stderr, Err: ctx.Err()}
	}
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			return res, &ExternalToolError{Kind: KindExit, Command: r.name(), ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
		case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, fs.ErrPermission):
			return nil, &ExternalToolError{Kind: KindMissing, Command: r.name(), ExitCode: -1, Err: err}
		case ctx.Err() != nil:
			return res, errors.Wrap(ctx.Err(), r.name())
		}
		return nil, &ExternalToolError{Kind: KindMissing, Command: r.name(), ExitCode: -1, Err: err}
	}
	if strings.TrimSpace(res.Stderr) != "" {
		return res, &ExternalToolError{Kind: KindExit, Command: r.name(), ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

func (r *Runner) name() string {
	if len(r.Command) == 0 {
		return ""
	}
	return r.Command[0]
}
