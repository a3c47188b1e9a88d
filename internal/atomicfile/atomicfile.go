// Copyright (c) 2026 Acctvault Team
// Acctvault - local account credential vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package atomicfile replaces vault files atomically: content goes to a
// temporary file in the target directory which is then renamed over the
// target, so a crash can never leave a truncated file behind.
package atomicfile

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

const maxPathLength = 260

// DirMode is used when the parent directory has to be created.
const DirMode = 0o700

// MaybePrefixLongFilenameOnWindows prefixes the given filename with \\?\ on
// Windows if the filename is longer than 260 characters.
func MaybePrefixLongFilenameOnWindows(fname string) string {
	if runtime.GOOS != "windows" {
		return fname
	}

	if len(fname) < maxPathLength {
		return fname
	}

	return "\\\\?\\" + fname
}

// Write atomically replaces filename with the content of r. New files are
// created owner-only; an existing file keeps its mode.
func Write(filename string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(filename), DirMode); err != nil {
		return errors.Wrap(err, "unable to create parent directory")
	}
	if err := atomic.WriteFile(MaybePrefixLongFilenameOnWindows(filename), r); err != nil {
		return errors.Wrapf(err, "unable to replace %s", filepath.Base(filename))
	}
	return nil
}

// WriteBytes is Write for an in-memory payload.
func WriteBytes(filename string, data []byte) error {
	return Write(filename, bytes.NewReader(data))
}

// Rename atomically moves src over dst.
func Rename(src, dst string) error {
	if err := atomic.ReplaceFile(MaybePrefixLongFilenameOnWindows(src), MaybePrefixLongFilenameOnWindows(dst)); err != nil {
		return errors.Wrapf(err, "unable to move %s into place", filepath.Base(src))
	}
	return nil
}
