package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Runner executes a Command with input on stdin and returns its stdout.
type Runner interface {
	Run(ctx context.Context, cmd Command, input string, raw bool) (string, error)
}

// ExternalToolError reports a failed tool invocation.
type ExternalToolError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error // start or wait failure, if any
}

func (e *ExternalToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	switch {
	case msg != "":
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = fmt.Sprintf("exit status %d", e.ExitCode)
	}
	return e.Command + ": " + msg
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// IsExternalToolError reports whether err is or wraps an ExternalToolError.
func IsExternalToolError(err error) bool {
	var e *ExternalToolError
	return errors.As(err, &e)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Dir is the working directory for every invocation. Empty means the
	// current directory.
	Dir    string
	Logger *log.Logger
}

// NewExecRunner creates an ExecRunner. A nil logger discards output.
func NewExecRunner(logger *log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &ExecRunner{Logger: logger}
}

// Run starts cmd, writes the full input to its stdin, closes it and waits for
// both output streams before inspecting the exit status. The context is only
// checked before the process starts; a running tool is never interrupted.
func (r *ExecRunner) Run(ctx context.Context, cmd Command, input string, raw bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := cmd.Name
	if name == "" {
		name = cmd.Path
	}

	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = r.Dir
	c.Env = cmd.Environ(os.Environ())
	c.Stdin = strings.NewReader(StripNonASCII(input))
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	start := time.Now()
	err := c.Run()
	elapsed := time.Since(start)

	if err != nil || stderr.Len() > 0 {
		toolErr := &ExternalToolError{Command: name, Stderr: stderr.String()}
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			toolErr.ExitCode = exitErr.ExitCode()
		case err != nil:
			toolErr.ExitCode = -1
			toolErr.Err = err
		}
		r.Logger.Warn("tool failed", "command", name, "exit", toolErr.ExitCode, "duration", elapsed, "stderr", strings.TrimSpace(stderr.String()))
		return "", toolErr
	}

	r.Logger.Debug("tool finished", "command", name, "duration", elapsed, "out_bytes", stdout.Len())
	if raw {
		return stdout.String(), nil
	}
	return StripNonASCII(stdout.String()), nil
}

var _ Runner = (*ExecRunner)(nil)
