package env

import (
	"os"
	"path/filepath"
	"testing"
)

const testKey = "PIRANHA_CI_TEST_PATH"

func join(parts ...string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += string(filepath.ListSeparator) + p
	}
	return out
}

func TestPrependAppendRestore(t *testing.T) {
	t.Setenv(testKey, "orig")

	sp := Acquire(testKey)
	if err := sp.Prepend("mingw64/bin"); err != nil {
		t.Fatal(err)
	}
	if err := sp.Append("local/lib"); err != nil {
		t.Fatal(err)
	}
	if got, want := os.Getenv(testKey), join("mingw64/bin", "orig", "local/lib"); got != want {
		t.Errorf("%s = %q, want %q", testKey, got, want)
	}

	if err := sp.Restore(); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv(testKey); got != "orig" {
		t.Errorf("after Restore %s = %q, want %q", testKey, got, "orig")
	}
	if sp.Original() != "orig" {
		t.Errorf("Original() = %q, want %q", sp.Original(), "orig")
	}
}

func TestRestoreOnlyOnce(t *testing.T) {
	t.Setenv(testKey, "orig")

	sp := Acquire(testKey)
	sp.Prepend("a")
	sp.Restore()

	// Changes made after the scope was restored are not undone again.
	os.Setenv(testKey, "later")
	sp.Restore()
	if got := os.Getenv(testKey); got != "later" {
		t.Errorf("%s = %q, want %q", testKey, got, "later")
	}
}

func TestRestoreUnset(t *testing.T) {
	t.Setenv(testKey, "")
	os.Unsetenv(testKey)

	sp := Acquire(testKey)
	sp.Append("local/lib")
	if got := os.Getenv(testKey); got != "local/lib" {
		t.Errorf("%s = %q, want %q", testKey, got, "local/lib")
	}
	sp.Restore()
	if _, ok := os.LookupEnv(testKey); ok {
		t.Errorf("%s still set after Restore", testKey)
	}
}
