package cmake

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bluescarni/piranha-ci/internal/run"
	"github.com/bluescarni/piranha-ci/internal/run/runtest"
	"github.com/bluescarni/piranha-ci/pkgs/buildsys"
)

func TestConfigureArgsKeepDefineOrder(t *testing.T) {
	c := New(nil, "..", "build").Generator("MinGW Makefiles", "mingw32-make")
	c.BuildType("Debug")
	c.DefineBool("BUILD_TESTS", true)
	c.Define("PIRANHA_TEST_NSPLIT", "2")
	c.Define("PIRANHA_TEST_SPLIT_NUM", "0")
	c.BuildType("Release")

	want := []string{
		"cmake", "-G", "MinGW Makefiles", "..",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DBUILD_TESTS=yes",
		"-DPIRANHA_TEST_NSPLIT=2",
		"-DPIRANHA_TEST_SPLIT_NUM=0",
	}
	if got := c.ConfigureArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigureArgs() = %q, want %q", got, want)
	}
}

func TestConfigureWithoutGenerator(t *testing.T) {
	c := New(nil, "src", "build").
		Define("CMAKE_PREFIX_PATH", `C:\local`).
		DefineBool("PIRANHA_WITH_ZLIB", false)

	want := []string{"cmake", "src", `-DCMAKE_PREFIX_PATH=C:\local`, "-DPIRANHA_WITH_ZLIB=no"}
	if got := c.ConfigureArgs(); !reflect.DeepEqual(got, want) {
		t.Errorf("ConfigureArgs() = %q, want %q", got, want)
	}
}

func TestConfigureAndInstallRunInBuildDir(t *testing.T) {
	rec := &runtest.Recorder{}
	c := New(rec, "..", "/work/build").Generator("MinGW Makefiles", "mingw32-make").Jobs(2)
	c.Define("CMAKE_CXX_FLAGS", "-s")
	c.Define("PYTHON_EXECUTABLE", `C:\Python35\python.exe`)

	ctx := context.Background()
	if err := c.Configure(ctx); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := c.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}

	calls := rec.Calls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if !reflect.DeepEqual(calls[0].Args, c.ConfigureArgs()) {
		t.Errorf("configure args = %q, want %q", calls[0].Args, c.ConfigureArgs())
	}
	wantInstall := []string{"mingw32-make", "install", "VERBOSE=1", "-j2"}
	if !reflect.DeepEqual(calls[1].Args, wantInstall) {
		t.Errorf("install args = %q, want %q", calls[1].Args, wantInstall)
	}
	for _, call := range calls {
		if call.Dir != "/work/build" {
			t.Errorf("%s ran in %q, want /work/build", call.Args[0], call.Dir)
		}
		if call.Silent {
			t.Errorf("%s ran silently, want streamed output", call.Args[0])
		}
	}
}

func TestBuildDir(t *testing.T) {
	var bs buildsys.BuildSystem = New(nil, "..", "/work/build")
	if got := bs.BuildDir(); got != "/work/build" {
		t.Errorf("BuildDir() = %q, want /work/build", got)
	}
}

func TestConfigureFailure(t *testing.T) {
	rec := &runtest.Recorder{}
	rec.Fail("cmake", "CMake Error: Could not find GMP")
	c := New(rec, "..", "build")

	err := c.Configure(context.Background())
	var cmdErr *run.CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Configure error = %v, want *run.CommandError", err)
	}
	if cmdErr.Output != "CMake Error: Could not find GMP" {
		t.Errorf("Output = %q", cmdErr.Output)
	}
}
