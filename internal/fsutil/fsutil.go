// Package fsutil holds the small filesystem helpers used while
// provisioning and packaging.
package fsutil

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Purge removes path whatever it is. A real directory is removed with all
// its contents; a file, a symlink or a symlink to a directory is removed as
// a single entry and never followed. A missing path is not an error.
func Purge(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fi.IsDir() {
		return os.RemoveAll(path)
	}
	return os.Remove(path)
}

// CopyFile copies src into dir, keeping its base name.
func CopyFile(src, dir string) error {
	return copyFile(src, filepath.Join(dir, filepath.Base(src)))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}

var rename = os.Rename

// MoveInto moves src into dir, keeping its base name, and returns the new
// path. When src and dir are on different volumes the tree is copied and
// src removed afterwards.
func MoveInto(src, dir string) (string, error) {
	dst := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Lstat(dst); err == nil {
		return "", fmt.Errorf("move %s: %s already exists", src, dst)
	}
	err := rename(src, dst)
	if err == nil {
		return dst, nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return "", err
	}
	if err := CopyTree(src, dst); err != nil {
		// Leave src intact; drop the partial copy.
		_ = Purge(dst)
		return "", fmt.Errorf("move %s after %v: %w", src, linkErr.Err, err)
	}
	if err := Purge(src); err != nil {
		return "", err
	}
	return dst, nil
}

// CopyTree copies the file, directory or symlink at src to dst, which must
// not exist. Symlinks are recreated, not followed.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return os.Mkdir(target, fi.Mode().Perm())
		}
		return copyFile(path, target)
	})
}

// ReadLines returns the non-empty lines of a text file, without line
// terminators.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}
