// Package buildsys abstracts the native build tool driving a CI build.
package buildsys

import "context"

// BuildSystem captures what the orchestrator needs from a native build
// tool once it has been set up: a configure step, then a build+install
// step, both run in BuildDir.
type BuildSystem interface {
	Configure(ctx context.Context) error
	Install(ctx context.Context) error

	// BuildDir is where the build runs and where its tests are driven from.
	BuildDir() string
}
