package matrix

import "path/filepath"

// DefaultRoot is the drive everything is provisioned onto on the CI image.
const DefaultRoot = `C:\`

// Layout names the fixed install locations, all relative to Root.
type Layout struct {
	Root string
}

// ToolchainBin holds the MinGW compilers and mingw32-make.
func (l Layout) ToolchainBin() string { return filepath.Join(l.Root, "mingw64", "bin") }

// Local is the prefix the common dependency archives unpack into.
func (l Layout) Local() string        { return filepath.Join(l.Root, "local") }
func (l Layout) LocalInclude() string { return filepath.Join(l.Local(), "include") }
func (l Layout) LocalLib() string     { return filepath.Join(l.Local(), "lib") }

// BoostLibrary returns the path of a MinGW-built Boost component DLL.
func (l Layout) BoostLibrary(component string) string {
	return filepath.Join(l.LocalLib(), "libboost_"+component+"-mgw62-mt-1_62.dll")
}

// BoostPython is the Boost.Python DLL matching v.
func (l Layout) BoostPython(v PythonVersion) string {
	component := "python"
	if v.Major() == "3" {
		component += "3"
	}
	return l.BoostLibrary(component)
}
