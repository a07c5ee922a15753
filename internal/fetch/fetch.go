// Package fetch downloads remote resources to local files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
)

// Fetcher downloads url to dest, replacing dest if it exists.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// StatusError reports a response that was not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// HTTP fetches over net/http. It has no retry policy: any failure is
// returned as is and an interrupted download may leave a truncated file.
type HTTP struct {
	Client *http.Client
	Logger *log.Logger
}

var _ Fetcher = (*HTTP)(nil)

// New returns an HTTP fetcher. Archives can be large, so the client has no
// overall timeout; the caller's context bounds the transfer.
func New(logger *log.Logger) *HTTP {
	return &HTTP{Client: &http.Client{}, Logger: logger}
}

func (f *HTTP) Fetch(ctx context.Context, url, dest string) error {
	if f.Logger != nil {
		f.Logger.Info("downloading", "url", url, "dest", dest)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("download %s: %w", url, err)
	}
	return out.Close()
}
