// Package build drives a configured CI job through provisioning, the CMake
// build, the test suite and, for bindings, wheel packaging and upload.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bluescarni/piranha-ci/internal/env"
	"github.com/bluescarni/piranha-ci/internal/fsutil"
	"github.com/bluescarni/piranha-ci/internal/matrix"
	"github.com/bluescarni/piranha-ci/internal/metrics"
	"github.com/bluescarni/piranha-ci/internal/run"
	"github.com/bluescarni/piranha-ci/pkgs/buildsys"
	"github.com/bluescarni/piranha-ci/pkgs/buildsys/cmake"
)

// Phase names one step of a run, in execution order.
type Phase string

const (
	PhaseProvision Phase = "provision"
	PhaseConfigure Phase = "configure"
	PhaseInstall   Phase = "install"
	PhaseTest      Phase = "test"
	PhasePackage   Phase = "package"
	PhasePublish   Phase = "publish"
)

// unstableTests are skipped by native Release runs: they are either flaky
// on the CI image or take too long.
var unstableTests = []string{"gastineau", "pearce2_unpacked", "s11n_perf"}

const selfTestScript = "import pyranha.test; pyranha.test.run_test_suite()"

// Provisioner installs a configuration's dependencies and extends path.
type Provisioner interface {
	Provision(ctx context.Context, cfg *matrix.Config, path *env.SearchPath) error
}

// Orchestrator runs one CI job from provisioning to publishing. It stops at
// the first error and leaves whatever it produced in place.
type Orchestrator struct {
	Runner      run.Runner
	Provisioner Provisioner
	Logger      *log.Logger
	// Metrics is optional.
	Metrics *metrics.Recorder
	// SourceDir is the checkout; the build directory is created inside it.
	SourceDir string
	// Account is the package-index user releases are uploaded as.
	Account string
	// NewBuildSystem sets up the native build for cfg in buildDir. Nil
	// means the CMake build piranha ships with.
	NewBuildSystem func(cfg *matrix.Config, buildDir string) buildsys.BuildSystem
}

// Run executes every phase cfg calls for. The search path is restored
// before Run returns, on success and on failure.
func (o *Orchestrator) Run(ctx context.Context, cfg *matrix.Config) (err error) {
	path := env.Acquire(env.PathKey)
	defer func() {
		if rerr := path.Restore(); rerr != nil && err == nil {
			err = rerr
		}
	}()

	if cfg.Tag.IsRelease {
		o.Logger.Info("release build detected", "tag", cfg.Tag.Name, "semver", cfg.Tag.Semver())
		if pre := cfg.Tag.Prerelease(); pre != "" {
			o.Logger.Warn("release tag is a prerelease", "tag", cfg.Tag.Name, "prerelease", pre)
		}
	}

	if err := o.phase(PhaseProvision, func() error {
		return o.Provisioner.Provision(ctx, cfg, path)
	}); err != nil {
		return err
	}

	buildDir := filepath.Join(o.SourceDir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return err
	}
	bs := o.buildSystem(cfg, buildDir)
	if err := o.phase(PhaseConfigure, func() error { return bs.Configure(ctx) }); err != nil {
		return err
	}
	if err := o.phase(PhaseInstall, func() error { return bs.Install(ctx) }); err != nil {
		return err
	}

	switch bt := cfg.BuildType.(type) {
	case matrix.Native:
		return o.phase(PhaseTest, func() error { return o.testNative(ctx, bt, bs.BuildDir()) })
	case matrix.Binding:
		return o.runBinding(ctx, cfg, bt.Python, bs.BuildDir(), path)
	}
	return fmt.Errorf("%w: %T", matrix.ErrUnsupportedBuildType, cfg.BuildType)
}

func (o *Orchestrator) runBinding(ctx context.Context, cfg *matrix.Config, py matrix.Python, buildDir string, path *env.SearchPath) error {
	if err := o.phase(PhaseTest, func() error { return o.selfTest(ctx, py, buildDir) }); err != nil {
		return err
	}
	var wheel string
	if err := o.phase(PhasePackage, func() (err error) {
		wheel, err = o.pack(ctx, cfg, py, buildDir, path)
		return err
	}); err != nil {
		return err
	}
	if !cfg.Tag.IsRelease {
		return nil
	}
	return o.phase(PhasePublish, func() error {
		_, err := o.Runner.Run(ctx, run.Line(py.Twine(), "upload", "-u", o.Account, wheel))
		return err
	})
}

func (o *Orchestrator) buildSystem(cfg *matrix.Config, buildDir string) buildsys.BuildSystem {
	if o.NewBuildSystem != nil {
		return o.NewBuildSystem(cfg, buildDir)
	}
	return o.cmake(cfg, buildDir)
}

// cmake assembles the configure definitions for cfg.
func (o *Orchestrator) cmake(cfg *matrix.Config, buildDir string) *cmake.CMake {
	l := cfg.Layout
	cm := cmake.New(o.Runner, "..", buildDir).Generator("MinGW Makefiles", "mingw32-make").Jobs(2)

	switch bt := cfg.BuildType.(type) {
	case matrix.Native:
		cm.BuildType(string(bt.Mode)).
			DefineBool("BUILD_TESTS", true).
			Define("PIRANHA_TEST_NSPLIT", fmt.Sprint(bt.Split.Count)).
			Define("PIRANHA_TEST_SPLIT_NUM", fmt.Sprint(bt.Split.Index))
	case matrix.Binding:
		cm.DefineBool("BUILD_PYRANHA", true).
			BuildType(string(matrix.Release)).
			Define("CMAKE_CXX_FLAGS", "-s")
	}

	cm.Define("CMAKE_PREFIX_PATH", l.Local()).
		DefineBool("PIRANHA_WITH_BZIP2", true).
		Define("BZIP2_INCLUDE_DIR", l.LocalInclude()).
		Define("BZIP2_LIBRARY_RELEASE", l.BoostLibrary("bzip2")).
		DefineBool("PIRANHA_WITH_MSGPACK", true).
		DefineBool("PIRANHA_WITH_ZLIB", true).
		Define("ZLIB_INCLUDE_DIR", l.LocalInclude()).
		Define("ZLIB_LIBRARY_RELEASE", l.BoostLibrary("zlib"))

	if b, ok := cfg.Binding(); ok {
		py := b.Python
		cm.Define("Boost_PYTHON_LIBRARY_RELEASE", l.BoostPython(py.Version)).
			Define("PYTHON_EXECUTABLE", py.Interpreter()).
			Define("PYTHON_LIBRARY", py.Library())
	}
	return cm
}

func (o *Orchestrator) testNative(ctx context.Context, n matrix.Native, buildDir string) error {
	args := []string{"ctest", "-VV"}
	if n.Mode == matrix.Release {
		args = append(args, "-E", strings.Join(unstableTests, "|"))
	}
	_, err := o.Runner.Run(ctx, run.Line(args...), run.InDir(buildDir))
	return err
}

func (o *Orchestrator) selfTest(ctx context.Context, py matrix.Python, dir string) error {
	_, err := o.Runner.Run(ctx, run.Line(py.Interpreter(), "-c", selfTestScript), run.InDir(dir))
	return err
}

// pack builds a wheel from the installed package, installs it with the
// original search path and tests the installed copy. It returns the wheel.
func (o *Orchestrator) pack(ctx context.Context, cfg *matrix.Config, py matrix.Python, buildDir string, path *env.SearchPath) (string, error) {
	wheelDir := filepath.Join(buildDir, "wheel")
	pkgDir, err := fsutil.MoveInto(py.PackageInstall(), wheelDir)
	if err != nil {
		return "", fmt.Errorf("move %s: %w", py.PackageInstall(), err)
	}

	libs, err := fsutil.ReadLines(filepath.Join(wheelDir, "mingw_wheel_libs_python"+py.Version.Major()+".txt"))
	if err != nil {
		return "", err
	}
	for _, lib := range libs {
		if err := fsutil.CopyFile(lib, pkgDir); err != nil {
			return "", err
		}
	}

	if _, err := o.Runner.Run(ctx, run.Line(py.Interpreter(), "setup.py", "bdist_wheel"), run.InDir(wheelDir)); err != nil {
		return "", err
	}

	// The wheel must work without the provisioned toolchain on the path.
	if err := path.Restore(); err != nil {
		return "", err
	}
	o.Logger.Debug("search path restored", "path", path.Original())

	wheel, err := findWheel(filepath.Join(wheelDir, "dist"))
	if err != nil {
		return "", err
	}
	if _, err := o.Runner.Run(ctx, run.Line(py.Pip(), "install", wheel), run.InDir(wheelDir)); err != nil {
		return "", err
	}
	// Run from outside the build tree so the installed package is imported.
	if err := o.selfTest(ctx, py, cfg.Layout.Root); err != nil {
		return "", err
	}
	return wheel, nil
}

// findWheel returns the single archive bdist_wheel left in dist.
func findWheel(dist string) (string, error) {
	entries, err := os.ReadDir(dist)
	if err != nil {
		return "", err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	switch len(files) {
	case 0:
		return "", fmt.Errorf("no archive in %s", dist)
	case 1:
		return filepath.Join(dist, files[0]), nil
	}
	return "", fmt.Errorf("expected one archive in %s, found %d: %s", dist, len(files), strings.Join(files, ", "))
}

func (o *Orchestrator) phase(p Phase, fn func() error) error {
	o.Logger.Info("phase started", "phase", p)
	start := time.Now()
	err := fn()
	d := time.Since(start)
	if o.Metrics != nil {
		o.Metrics.ObservePhase(string(p), d, err)
	}
	if err != nil {
		o.Logger.Error("phase failed", "phase", p, "duration", d.Round(time.Millisecond))
		return fmt.Errorf("%s: %w", p, err)
	}
	o.Logger.Info("phase finished", "phase", p, "duration", d.Round(time.Millisecond))
	return nil
}
