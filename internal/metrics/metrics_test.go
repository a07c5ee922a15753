package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluescarni/piranha-ci/internal/run/runtest"
)

func TestObservePhase(t *testing.T) {
	r := New()
	r.ObservePhase("configure", 1500*time.Millisecond, nil)
	r.ObservePhase("test", time.Second, errors.New("ctest failed"))

	assert.Equal(t, 1.5, testutil.ToFloat64(r.phaseDuration.WithLabelValues("configure")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.phaseFailures.WithLabelValues("configure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseFailures.WithLabelValues("test")))
}

func TestRunnerCountsOutcomes(t *testing.T) {
	rec := &runtest.Recorder{}
	rec.Fail("ctest", "1 test failed")
	r := New()
	runner := r.Runner(rec)

	ctx := context.Background()
	_, err := runner.Run(ctx, "cmake ..")
	require.NoError(t, err)
	_, err = runner.Run(ctx, "ctest -VV")
	require.Error(t, err)
	_, err = runner.Run(ctx, `unterminated "quote`)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.commands.WithLabelValues("error")))
}

func TestWriteFile(t *testing.T) {
	r := New()
	r.ObservePhase("install", 2*time.Second, nil)
	path := filepath.Join(t.TempDir(), "piranha_ci.prom")

	require.NoError(t, r.WriteFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `piranha_ci_phase_duration_seconds{phase="install"} 2`)
}
