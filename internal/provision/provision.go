// Package provision downloads the prebuilt dependencies of a CI job and
// unpacks them onto the fixed install locations.
package provision

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bluescarni/piranha-ci/internal/env"
	"github.com/bluescarni/piranha-ci/internal/fetch"
	"github.com/bluescarni/piranha-ci/internal/fsutil"
	"github.com/bluescarni/piranha-ci/internal/matrix"
	"github.com/bluescarni/piranha-ci/internal/run"
)

// Provisioner materialises the dependency set of a Config. Every step is
// fatal on failure and nothing is cleaned up.
type Provisioner struct {
	Fetcher  fetch.Fetcher
	Runner   run.Runner
	Manifest *Manifest
	Logger   *log.Logger
	// DownloadDir receives the archives; empty means the working directory.
	DownloadDir string
}

// Provision installs the toolchain and the common libraries, and for
// binding builds a fresh Python runtime with its packages. Directories are
// added to path as they become available.
func (p *Provisioner) Provision(ctx context.Context, cfg *matrix.Config, path *env.SearchPath) error {
	layout := cfg.Layout
	m := p.Manifest

	if err := p.install(ctx, layout.Root, m.Toolchain); err != nil {
		return err
	}
	if err := path.Prepend(layout.ToolchainBin()); err != nil {
		return err
	}
	p.debug("search path", "prepend", layout.ToolchainBin())

	// Archives may share subtrees under the root, so everything is fetched
	// first and then extracted in order with overwrite enabled.
	for _, a := range m.Common {
		if err := p.fetch(ctx, m.URL(a), a.File); err != nil {
			return err
		}
	}
	for _, a := range m.Common {
		if err := p.extract(ctx, layout.Root, a.File); err != nil {
			return err
		}
	}
	if err := path.Append(layout.LocalLib()); err != nil {
		return err
	}
	p.debug("search path", "append", layout.LocalLib())

	b, ok := cfg.Binding()
	if !ok {
		return nil
	}
	return p.provisionPython(ctx, cfg, b.Python)
}

func (p *Provisioner) provisionPython(ctx context.Context, cfg *matrix.Config, py matrix.Python) error {
	deps := p.Manifest.Python
	root := cfg.Layout.Root
	id := py.Version.ID()

	// A stale install tree would leak into the package build.
	if err := fsutil.Purge(py.InstallRoot()); err != nil {
		return fmt.Errorf("remove %s: %w", py.InstallRoot(), err)
	}
	if err := p.install(ctx, root, deps.Runtime.ForRuntime(id)); err != nil {
		return err
	}
	if err := p.install(ctx, root, deps.BoostPython.ForRuntime(id)); err != nil {
		return err
	}

	if err := p.fetch(ctx, deps.Bootstrap.URL, deps.Bootstrap.File); err != nil {
		return err
	}
	if _, err := p.Runner.Run(ctx, run.Line(py.Interpreter(), p.local(deps.Bootstrap.File))); err != nil {
		return err
	}
	pkgs := deps.Packages
	if cfg.Tag.IsRelease {
		pkgs = append(pkgs[:len(pkgs):len(pkgs)], deps.Publisher)
	}
	for _, pkg := range pkgs {
		if _, err := p.Runner.Run(ctx, run.Line(py.Pip(), "install", pkg)); err != nil {
			return err
		}
	}
	return nil
}

// install downloads a from the manifest base URL and extracts it into root.
func (p *Provisioner) install(ctx context.Context, root string, a Archive) error {
	if err := p.fetch(ctx, p.Manifest.URL(a), a.File); err != nil {
		return err
	}
	return p.extract(ctx, root, a.File)
}

func (p *Provisioner) fetch(ctx context.Context, url, file string) error {
	if err := p.Fetcher.Fetch(ctx, url, p.local(file)); err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	return nil
}

func (p *Provisioner) extract(ctx context.Context, root, file string) error {
	_, err := p.Runner.Run(ctx, run.Line("7z", "x", "-aoa", "-o"+root, p.local(file)), run.Silent())
	return err
}

func (p *Provisioner) local(file string) string {
	if p.DownloadDir == "" {
		return file
	}
	return filepath.Join(p.DownloadDir, file)
}

func (p *Provisioner) debug(msg string, keyvals ...any) {
	if p.Logger != nil {
		p.Logger.Debug(msg, keyvals...)
	}
}
