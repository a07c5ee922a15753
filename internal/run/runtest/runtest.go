// Package runtest provides a recording run.Runner for tests.
package runtest

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/bluescarni/piranha-ci/internal/env"
	"github.com/bluescarni/piranha-ci/internal/run"
)

// Call is one recorded invocation.
type Call struct {
	Line   string
	Args   []string
	Dir    string
	Silent bool
	// Path is the search path the command would have inherited.
	Path string
}

// Handler reacts to a matched call, e.g. by creating files the real tool
// would produce.
type Handler func(c Call) (string, error)

type rule struct {
	program string
	match   func(args []string) bool
	handler Handler
}

// Recorder records every Run and succeeds unless a rule says otherwise.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	rules []rule
}

var _ run.Runner = (*Recorder)(nil)

// On registers h for calls whose program base name is program and whose
// arguments contain every one of args.
func (r *Recorder) On(program string, h Handler, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		program: program,
		match:   func(got []string) bool { return containsAll(got, args) },
		handler: h,
	})
}

// Fail makes calls matching program and args fail with a CommandError.
func (r *Recorder) Fail(program, output string, args ...string) {
	r.On(program, func(c Call) (string, error) {
		return output, &run.CommandError{Cmd: c.Line, ExitCode: 1, Output: output}
	}, args...)
}

func (r *Recorder) Run(ctx context.Context, cmdline string, opts ...run.Option) (string, error) {
	args, err := run.Split(cmdline)
	if err != nil {
		return "", err
	}
	c := Call{Line: cmdline, Args: args, Path: os.Getenv(env.PathKey)}
	c.Dir, c.Silent = run.Inspect(opts...)

	r.mu.Lock()
	r.calls = append(r.calls, c)
	rules := append([]rule(nil), r.rules...)
	r.mu.Unlock()

	for _, rl := range rules {
		if Program(args[0]) == rl.program && rl.match(args[1:]) {
			return rl.handler(c)
		}
	}
	return "", nil
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Programs returns the program base name of every call, in order.
func (r *Recorder) Programs() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, Program(c.Args[0]))
	}
	return out
}

// Find returns the first call to program whose arguments contain args.
func (r *Recorder) Find(program string, args ...string) (Call, bool) {
	for _, c := range r.Calls() {
		if Program(c.Args[0]) == program && containsAll(c.Args[1:], args) {
			return c, true
		}
	}
	return Call{}, false
}

// Program strips directories and a Windows .exe suffix from a program path.
// Both separators are handled so Windows-style paths work on any host.
func Program(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		path = path[i+1:]
	}
	return strings.TrimSuffix(path, ".exe")
}

func containsAll(got, want []string) bool {
	for _, w := range want {
		found := false
		for _, g := range got {
			if g == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
