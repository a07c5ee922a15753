// Package env manages the process search path for the duration of a run.
package env

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PathKey is the variable tools are located through.
const PathKey = "PATH"

// SearchPath is a scoped handle on a PATH-like variable. The value seen at
// Acquire is restored exactly once, by the first call to Restore.
type SearchPath struct {
	key      string
	original string
	wasSet   bool
	once     sync.Once
}

// Acquire snapshots the current value of key.
func Acquire(key string) *SearchPath {
	v, ok := os.LookupEnv(key)
	return &SearchPath{key: key, original: v, wasSet: ok}
}

// Original returns the value saved at Acquire.
func (s *SearchPath) Original() string { return s.original }

// Prepend puts dir in front of the current value.
func (s *SearchPath) Prepend(dir string) error {
	cur := os.Getenv(s.key)
	if cur == "" {
		return os.Setenv(s.key, dir)
	}
	return os.Setenv(s.key, dir+string(filepath.ListSeparator)+cur)
}

// Append adds dir after the current value.
func (s *SearchPath) Append(dir string) error {
	cur := os.Getenv(s.key)
	if cur == "" {
		return os.Setenv(s.key, dir)
	}
	return os.Setenv(s.key, strings.TrimSuffix(cur, string(filepath.ListSeparator))+string(filepath.ListSeparator)+dir)
}

// Restore puts back the saved value. Later calls are no-ops, so it is safe
// both to defer it and to call it at a defined point of the run.
func (s *SearchPath) Restore() error {
	var err error
	s.once.Do(func() {
		if s.wasSet {
			err = os.Setenv(s.key, s.original)
			return
		}
		err = os.Unsetenv(s.key)
	})
	return err
}
