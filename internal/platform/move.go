package platform

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	// ErrVerifyFailed is returned when a cross-volume copy does not match its source.
	ErrVerifyFailed = errors.New("copy verification failed")

	// ErrCrossDevice is matched by Rename errors for paths on different volumes.
	ErrCrossDevice = errors.New("paths are on different volumes")

	// ErrSourceRemains is returned by Move when a cross-volume copy was
	// verified but the source could not be removed completely. dst is whole;
	// src may be partially deleted.
	ErrSourceRemains = errors.New("source not removed after copy")
)

// removeAll is swapped in tests to simulate a source held open.
var removeAll = os.RemoveAll

// Rename renames src to dst without falling back to a copy. An error for
// paths on different volumes matches ErrCrossDevice.
func Rename(src, dst string) error {
	err := os.Rename(src, dst)
	if err != nil && isCrossDevice(err) {
		return fmt.Errorf("%w: %w", ErrCrossDevice, err)
	}
	return err
}

// Move moves the file or directory src to dst. Within one volume this is a
// single rename, so dst either appears whole or not at all. Across volumes it
// copies the tree, verifies every file size, then removes src. A failed
// removal is reported as ErrSourceRemains with dst complete.
func Move(src, dst string) error {
	err := Rename(src, dst)
	if err == nil || !errors.Is(err, ErrCrossDevice) {
		return err
	}
	return moveByCopy(src, dst)
}

func moveByCopy(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return &os.LinkError{Op: "move", Old: src, New: dst, Err: fs.ErrExist}
	}
	if err := CopyTree(src, dst); err != nil {
		os.RemoveAll(dst)
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if err := verifyTree(src, dst); err != nil {
		os.RemoveAll(dst)
		return err
	}
	if err := removeAll(src); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSourceRemains, src, err)
	}
	return nil
}

// CopyTree recursively copies src to dst. src may be a single file. Symlinks and other
// special files are skipped.
func CopyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		case d.Type().IsRegular():
			return CopyFile(path, target)
		default:
			return nil
		}
	})
}

// CopyFile copies a single file from src to dst, preserving permissions.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// verifyTree checks that every regular file under src exists under dst
// with the same size.
func verifyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		srcInfo, err := d.Info()
		if err != nil {
			return err
		}
		dstInfo, err := os.Stat(filepath.Join(dst, rel))
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrVerifyFailed, rel, err)
		}
		if dstInfo.Size() != srcInfo.Size() {
			return fmt.Errorf("%w: %s: size %d, want %d", ErrVerifyFailed, rel, dstInfo.Size(), srcInfo.Size())
		}
		return nil
	})
}
