package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/gmp_mingw_64.7z", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("7z archive bytes"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	srv := newServer(t)
	dest := filepath.Join(t.TempDir(), "gmp.7z")

	f := &HTTP{Client: srv.Client()}
	require.NoError(t, f.Fetch(context.Background(), srv.URL+"/gmp_mingw_64.7z", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "7z archive bytes", string(data))
}

func TestFetchOverwrites(t *testing.T) {
	srv := newServer(t)
	dest := filepath.Join(t.TempDir(), "gmp.7z")
	require.NoError(t, os.WriteFile(dest, []byte("stale content that is longer than the new one"), 0o644))

	f := &HTTP{Client: srv.Client()}
	require.NoError(t, f.Fetch(context.Background(), srv.URL+"/gmp_mingw_64.7z", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "7z archive bytes", string(data))
}

func TestFetchNotFound(t *testing.T) {
	srv := newServer(t)
	dest := filepath.Join(t.TempDir(), "missing.7z")

	f := &HTTP{Client: srv.Client()}
	err := f.Fetch(context.Background(), srv.URL+"/missing.7z", dest)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.NoFileExists(t, dest)
}

func TestFetchUnreachable(t *testing.T) {
	srv := newServer(t)
	url := srv.URL + "/gmp_mingw_64.7z"
	srv.Close()

	f := New(nil)
	err := f.Fetch(context.Background(), url, filepath.Join(t.TempDir(), "gmp.7z"))
	require.Error(t, err)
}
