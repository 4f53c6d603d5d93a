//
// Copyright (c) SAS Institute Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package atomicfile replaces files atomically: content is staged in a
// temporary sibling and renamed over the destination on Commit. A staged
// file that is cancelled, or never committed, leaves the destination
// untouched.
package atomicfile

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

type File struct {
	dest string
	tmp  *os.File
}

// Create stages a new file that will replace dest on Commit.
func Create(dest string) (*File, error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp")
	if err != nil {
		return nil, err
	}
	return &File{dest: dest, tmp: tmp}, nil
}

func (f *File) Write(p []byte) (int, error) {
	if f.tmp == nil {
		return 0, errors.New("atomicfile: write after commit or cancel")
	}
	return f.tmp.Write(p)
}

// Commit moves the staged content over the destination.
func (f *File) Commit() error {
	if f.tmp == nil {
		return errors.New("atomicfile: already committed or cancelled")
	}
	tmp := f.tmp
	f.tmp = nil
	name := tmp.Name()
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	// windows refuses to rename over an existing file
	if runtime.GOOS == "windows" {
		if err := os.Remove(f.dest); err != nil && !os.IsNotExist(err) {
			os.Remove(name)
			return err
		}
	}
	return os.Rename(name, f.dest)
}

// Cancel discards the staged content. Calling it after Commit, or more
// than once, is a no-op, so it is safe to defer unconditionally.
func (f *File) Cancel() error {
	if f.tmp == nil {
		return nil
	}
	name := f.tmp.Name()
	f.tmp.Close()
	f.tmp = nil
	return os.Remove(name)
}

// WriteFile atomically replaces dest with the given contents.
func WriteFile(dest string, contents []byte) error {
	f, err := Create(dest)
	if err != nil {
		return err
	}
	defer f.Cancel()
	if _, err := f.Write(contents); err != nil {
		return err
	}
	return f.Commit()
}
