// Package fetchtest provides an in-memory fetch.Fetcher for tests.
package fetchtest

import (
	"context"
	"os"
	"sync"

	"github.com/bluescarni/piranha-ci/internal/fetch"
)

// Download is one recorded fetch.
type Download struct {
	URL  string
	Dest string
}

// Fake writes the URL itself as the file content, so callers find a file
// where the real fetcher would have left one.
type Fake struct {
	mu        sync.Mutex
	downloads []Download
	// Err, when set, is returned for URLs in it.
	Err map[string]error
}

var _ fetch.Fetcher = (*Fake)(nil)

func (f *Fake) Fetch(ctx context.Context, url, dest string) error {
	f.mu.Lock()
	f.downloads = append(f.downloads, Download{URL: url, Dest: dest})
	err := f.Err[url]
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(url), 0o644)
}

// Downloads returns a copy of the recorded fetches.
func (f *Fake) Downloads() []Download {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Download(nil), f.downloads...)
}

// URLs returns the fetched URLs in order.
func (f *Fake) URLs() []string {
	var out []string
	for _, d := range f.Downloads() {
		out = append(out, d.URL)
	}
	return out
}
