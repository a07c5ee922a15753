// Package run executes external commands given as shell-style command
// lines and captures their combined output.
package run

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// Runner runs a command line and returns its combined stdout/stderr.
type Runner interface {
	Run(ctx context.Context, cmdline string, opts ...Option) (string, error)
}

// CommandError is returned when a command exits with a non-zero status.
type CommandError struct {
	Cmd      string
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	out := strings.TrimRight(e.Output, "\r\n")
	if out == "" {
		return fmt.Sprintf("command %q exited with status %d", e.Cmd, e.ExitCode)
	}
	return fmt.Sprintf("command %q exited with status %d:\n%s", e.Cmd, e.ExitCode, out)
}

type options struct {
	dir    string
	silent bool
}

// Option tweaks a single invocation.
type Option func(*options)

// InDir runs the command with dir as its working directory.
func InDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// Silent waits for the command to exit and reads its output in one go
// instead of echoing it line by line.
func Silent() Option {
	return func(o *options) { o.silent = true }
}

// Inspect reports the working directory and mode opts select. Runners other
// than Exec use it to honour the same options.
func Inspect(opts ...Option) (dir string, silent bool) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o.dir, o.silent
}

// Exec is the Runner backed by os/exec.
type Exec struct {
	// Stdout receives the echoed output in streaming mode. Defaults to os.Stdout.
	Stdout io.Writer
	Logger *log.Logger
}

var _ Runner = (*Exec)(nil)

// New returns an Exec echoing to os.Stdout.
func New(logger *log.Logger) *Exec {
	return &Exec{Stdout: os.Stdout, Logger: logger}
}

// Run splits cmdline into words and starts the program directly, without a
// shell. A non-zero exit yields a *CommandError carrying the captured output.
func (r *Exec) Run(ctx context.Context, cmdline string, opts ...Option) (string, error) {
	dir, silent := Inspect(opts...)
	args, err := Split(cmdline)
	if err != nil {
		return "", err
	}
	if r.Logger != nil {
		r.Logger.Info(cmdline)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir

	var output string
	if silent {
		var buf bytes.Buffer
		cmd.Stdout = &buf
		cmd.Stderr = &buf
		err = cmd.Run()
		output = buf.String()
	} else {
		output, err = r.stream(cmd)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return output, &CommandError{Cmd: cmdline, ExitCode: exitErr.ExitCode(), Output: output}
		}
		return output, fmt.Errorf("run %s: %w", args[0], err)
	}
	return output, nil
}

// stream echoes every line as soon as it arrives. The pipe is read to EOF
// before Wait so the child never blocks on a full pipe buffer.
func (r *Exec) stream(cmd *exec.Cmd) (string, error) {
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return "", err
	}

	dst := r.Stdout
	if dst == nil {
		dst = os.Stdout
	}
	// Each line is flushed as a single write as soon as it is complete.
	w := bufio.NewWriter(dst)
	var out strings.Builder
	rd := bufio.NewReader(pipe)
	for {
		line, readErr := rd.ReadString('\n')
		if line != "" {
			out.WriteString(line)
			w.WriteString(strings.TrimRight(line, "\r\n"))
			w.WriteByte('\n')
			_ = w.Flush()
		}
		if readErr != nil {
			if readErr != io.EOF {
				_ = cmd.Wait()
				return out.String(), readErr
			}
			break
		}
	}
	return out.String(), cmd.Wait()
}

// Split breaks a command line into words the way a POSIX shell would,
// honouring quotes and escapes. Parameter expansion is disabled.
func Split(cmdline string) ([]string, error) {
	args, err := shell.Fields(cmdline, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("parse command line %q: %w", cmdline, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("empty command line")
	}
	return args, nil
}

// Line composes a command line from args, quoting each one so that Split
// returns them unchanged.
func Line(args ...string) string {
	quoted := make([]string, 0, len(args))
	for _, a := range args {
		q, err := syntax.Quote(a, syntax.LangPOSIX)
		if err != nil {
			// Only strings that cannot be represented in POSIX shell fail
			// to quote; keep them verbatim.
			q = a
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " ")
}
