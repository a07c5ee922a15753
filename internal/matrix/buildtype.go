package matrix

import (
	"fmt"
	"path/filepath"
	"strings"
)

// BuildType is either Native or Binding. The set is closed: only this
// package can add implementations.
type BuildType interface {
	// Name is the selector the build type was parsed from.
	Name() string
	isBuildType()
}

// Mode is the optimisation level of a native build.
type Mode string

const (
	Release Mode = "Release"
	Debug   Mode = "Debug"
)

// TestSplit selects one shard of the test suite.
type TestSplit struct {
	Count int
	Index int
}

// Native builds the plain library and runs its test driver.
type Native struct {
	Mode  Mode
	Split TestSplit
}

func (n Native) Name() string { return string(n.Mode) }
func (Native) isBuildType()   {}

// Binding builds, tests and packages the Python extension.
type Binding struct {
	Python Python
}

func (b Binding) Name() string { return b.Python.Version.String() }
func (Binding) isBuildType()   {}

// PythonVersion is one of the supported Python runtimes.
type PythonVersion uint8

const (
	Python27 PythonVersion = iota + 1
	Python34
	Python35
)

// ParsePythonVersion maps a selector such as "Python35" to its version.
func ParsePythonVersion(selector string) (PythonVersion, error) {
	switch selector {
	case "Python27":
		return Python27, nil
	case "Python34":
		return Python34, nil
	case "Python35":
		return Python35, nil
	}
	return 0, fmt.Errorf("%w: unsupported Python build %q", ErrUnsupportedBuildType, selector)
}

// ID is the short identifier used in install roots and archive names.
func (v PythonVersion) ID() string {
	switch v {
	case Python27:
		return "27"
	case Python34:
		return "34"
	case Python35:
		return "35"
	}
	panic(fmt.Sprintf("matrix: invalid PythonVersion %d", v))
}

// Major is the leading digit of ID.
func (v PythonVersion) Major() string { return v.ID()[:1] }

func (v PythonVersion) String() string { return "Python" + v.ID() }

// Python locates a provisioned interpreter. Every path hangs off InstallRoot.
type Python struct {
	Version PythonVersion
	root    string
}

// NewPython returns the interpreter layout for v under the filesystem root.
func NewPython(v PythonVersion, root string) Python {
	return Python{Version: v, root: root}
}

func (p Python) InstallRoot() string { return filepath.Join(p.root, "Python"+p.Version.ID()) }
func (p Python) Interpreter() string { return filepath.Join(p.InstallRoot(), "python.exe") }
func (p Python) Pip() string         { return filepath.Join(p.InstallRoot(), "scripts", "pip") }
func (p Python) Twine() string       { return filepath.Join(p.InstallRoot(), "scripts", "twine") }

// Library is the runtime DLL the extension links against.
func (p Python) Library() string {
	return filepath.Join(p.InstallRoot(), "libs", "python"+p.Version.ID()+".dll")
}

// PackageInstall is where the build installs the pyranha package.
func (p Python) PackageInstall() string {
	return filepath.Join(p.InstallRoot(), "Lib", "site-packages", "pyranha")
}

// ParseBuildType validates selector. The returned Native has no test split
// yet; Load fills it in.
func ParseBuildType(selector string, layout Layout) (BuildType, error) {
	if strings.Contains(selector, "Python") {
		v, err := ParsePythonVersion(selector)
		if err != nil {
			return nil, err
		}
		return Binding{Python: NewPython(v, layout.Root)}, nil
	}
	switch Mode(selector) {
	case Release, Debug:
		return Native{Mode: Mode(selector)}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBuildType, selector)
}
