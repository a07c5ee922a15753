package matrix

// Summary is the flattened, printable form of a Config.
type Summary struct {
	BuildType  string         `yaml:"build_type"`
	Release    bool           `yaml:"release"`
	Tag        string         `yaml:"tag,omitempty"`
	Semver     string         `yaml:"semver,omitempty"`
	Root       string         `yaml:"root"`
	TestSplit  *TestSplit     `yaml:"test_split,omitempty"`
	Python     *PythonSummary `yaml:"python,omitempty"`
	Toolchain  string         `yaml:"toolchain_bin"`
	LibraryDir string         `yaml:"library_dir"`
}

// PythonSummary lists the derived interpreter paths.
type PythonSummary struct {
	ID             string `yaml:"id"`
	InstallRoot    string `yaml:"install_root"`
	Interpreter    string `yaml:"interpreter"`
	Pip            string `yaml:"pip"`
	Twine          string `yaml:"twine"`
	Library        string `yaml:"library"`
	PackageInstall string `yaml:"package_install"`
}

func (c *Config) Summary() Summary {
	s := Summary{
		BuildType:  c.BuildType.Name(),
		Release:    c.Tag.IsRelease,
		Tag:        c.Tag.Name,
		Semver:     c.Tag.Semver(),
		Root:       c.Layout.Root,
		Toolchain:  c.Layout.ToolchainBin(),
		LibraryDir: c.Layout.LocalLib(),
	}
	switch bt := c.BuildType.(type) {
	case Native:
		split := bt.Split
		s.TestSplit = &split
	case Binding:
		p := bt.Python
		s.Python = &PythonSummary{
			ID:             p.Version.ID(),
			InstallRoot:    p.InstallRoot(),
			Interpreter:    p.Interpreter(),
			Pip:            p.Pip(),
			Twine:          p.Twine(),
			Library:        p.Library(),
			PackageInstall: p.PackageInstall(),
		}
	}
	return s
}
