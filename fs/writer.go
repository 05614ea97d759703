// Package fs writes generated files to disk.
package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// Ensure File implements io.Writer at compile time.
var _ io.Writer = (*File)(nil)

// File is an output file with atomic update semantics. Content is written to
// a temporary file in the destination directory and moved into place on
// Commit, so readers never see a partially written file.
type File struct {
	path string
	tmp  *os.File
}

// Create starts writing the file at path, creating parent directories.
func Create(path string) (*File, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	return &File{path: path, tmp: tmp}, nil
}

// Write appends p to the pending content.
func (f *File) Write(p []byte) (int, error) {
	return f.tmp.Write(p)
}

// Commit replaces the file at the destination path with the written content.
func (f *File) Commit() error {
	if err := f.tmp.Sync(); err != nil {
		return errors.Join(err, f.Abort())
	}
	if err := f.tmp.Close(); err != nil {
		return errors.Join(err, os.Remove(f.tmp.Name()))
	}
	if err := os.Chmod(f.tmp.Name(), 0644); err != nil {
		return errors.Join(err, os.Remove(f.tmp.Name()))
	}
	return os.Rename(f.tmp.Name(), f.path)
}

// Abort discards the written content and leaves the destination untouched.
func (f *File) Abort() error {
	_ = f.tmp.Close()
	return os.Remove(f.tmp.Name())
}

// WriteFile atomically replaces the file at path with data.
func WriteFile(path string, data []byte) error {
	f, err := Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return errors.Join(err, f.Abort())
	}
	return f.Commit()
}
