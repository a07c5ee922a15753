package cmake

import (
	"context"
	"strconv"

	"github.com/bluescarni/piranha-ci/internal/run"
	"github.com/bluescarni/piranha-ci/pkgs/buildsys"
)

type define struct {
	key   string
	value string
}

// CMake configures with cmake and builds with the generator's make program.
// Definitions keep the order they were first set in.
type CMake struct {
	runner      run.Runner
	SourceDir   string
	buildDir    string
	generator   string
	makeProgram string
	jobs        int
	defines     []define
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a CMake helper running in buildDir. sourceDir is passed to
// cmake as is, so a relative path is resolved against buildDir.
func New(r run.Runner, sourceDir, buildDir string) *CMake {
	return &CMake{
		runner:      r,
		SourceDir:   sourceDir,
		buildDir:    buildDir,
		makeProgram: "make",
		jobs:        1,
	}
}

func (c *CMake) BuildDir() string { return c.buildDir }

// Generator sets the cmake generator (e.g. "MinGW Makefiles") and the make
// program that drives it.
func (c *CMake) Generator(name, makeProgram string) *CMake {
	c.generator = name
	c.makeProgram = makeProgram
	return c
}

// Jobs sets the build parallelism.
func (c *CMake) Jobs(n int) *CMake {
	c.jobs = n
	return c
}

// BuildType sets CMAKE_BUILD_TYPE.
func (c *CMake) BuildType(name string) *CMake {
	return c.Define("CMAKE_BUILD_TYPE", name)
}

// Define sets a cache entry passed to cmake as -Dkey=value. Setting a key
// again replaces its value in place.
func (c *CMake) Define(key, value string) *CMake {
	for i := range c.defines {
		if c.defines[i].key == key {
			c.defines[i].value = value
			return c
		}
	}
	c.defines = append(c.defines, define{key: key, value: value})
	return c
}

// DefineBool sets key to yes or no.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.Define(key, "yes")
	}
	return c.Define(key, "no")
}

// ConfigureArgs is the cmake command Configure runs.
func (c *CMake) ConfigureArgs() []string {
	args := []string{"cmake"}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	args = append(args, c.SourceDir)
	for _, d := range c.defines {
		args = append(args, "-D"+d.key+"="+d.value)
	}
	return args
}

// InstallArgs is the make command Install runs.
func (c *CMake) InstallArgs() []string {
	return []string{c.makeProgram, "install", "VERBOSE=1", "-j" + strconv.Itoa(c.jobs)}
}

func (c *CMake) Configure(ctx context.Context) error {
	_, err := c.runner.Run(ctx, run.Line(c.ConfigureArgs()...), run.InDir(c.buildDir))
	return err
}

func (c *CMake) Install(ctx context.Context) error {
	_, err := c.runner.Run(ctx, run.Line(c.InstallArgs()...), run.InDir(c.buildDir))
	return err
}
