// Package metrics records how long each phase of a CI run took and how
// many external commands it ran, for the node-exporter textfile collector.
package metrics

import (
	"context"
	"errors"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/bluescarni/piranha-ci/internal/run"
)

const namespace = "piranha_ci"

// Recorder owns a private registry so runs never share state.
type Recorder struct {
	registry      *prom.Registry
	phaseDuration *prom.GaugeVec
	phaseFailures *prom.CounterVec
	commands      *prom.CounterVec
}

// New returns a Recorder with its collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		phaseDuration: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of each run phase",
		}, []string{"phase"}),
		phaseFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "phase_failures_total",
			Help:      "Phases that ended with an error",
		}, []string{"phase"}),
		commands: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "External commands run, by outcome",
		}, []string{"status"}),
	}
	r.registry.MustRegister(r.phaseDuration, r.phaseFailures, r.commands)
	return r
}

// Registry exposes the collectors, mainly for tests.
func (r *Recorder) Registry() *prom.Registry { return r.registry }

// ObservePhase records one finished phase.
func (r *Recorder) ObservePhase(phase string, d time.Duration, err error) {
	r.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
	if err != nil {
		r.phaseFailures.WithLabelValues(phase).Inc()
	}
}

// PhaseFailures returns the failure counter of phase.
func (r *Recorder) PhaseFailures(phase string) prom.Counter {
	return r.phaseFailures.WithLabelValues(phase)
}

// WriteFile writes the metrics in text exposition format. The file is
// replaced atomically.
func (r *Recorder) WriteFile(path string) error {
	return prom.WriteToTextfile(path, r.registry)
}

// Runner counts the outcome of every command run through it.
func (r *Recorder) Runner(next run.Runner) run.Runner {
	return &countingRunner{next: next, commands: r.commands}
}

type countingRunner struct {
	next     run.Runner
	commands *prom.CounterVec
}

func (c *countingRunner) Run(ctx context.Context, cmdline string, opts ...run.Option) (string, error) {
	out, err := c.next.Run(ctx, cmdline, opts...)
	var cmdErr *run.CommandError
	switch {
	case err == nil:
		c.commands.WithLabelValues("ok").Inc()
	case errors.As(err, &cmdErr):
		c.commands.WithLabelValues("failed").Inc()
	default:
		c.commands.WithLabelValues("error").Inc()
	}
	return out, err
}
