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

// Package opczip exposes a ZIP archive as a store of OPC parts keyed by
// part URI. Mutations are buffered in memory and materialized by Flush,
// which rewrites the archive through a temporary file so that a failed or
// abandoned store never corrupts the original.
package opczip

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/vsixsign/vsixsign/lib/atomicfile"
)

type Mode int

const (
	ModeRead Mode = iota
	ModeReadWrite
)

// ErrReadOnly is returned when a mutation is attempted on a store opened
// with ModeRead.
var ErrReadOnly = errors.New("package is read-only")

type entry struct {
	uri      string    // canonical part URI with leading slash
	zf       *zip.File // backing zip entry, nil for buffered writes
	data     []byte
	buffered bool
}

type Store struct {
	path    string
	mode    Mode
	f       *os.File
	entries map[string]*entry // keyed by lowercased part URI
	order   []string
	dirty   bool
}

// CleanURI normalizes a part name to a leading-slash POSIX-style URI.
func CleanURI(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return path.Clean(name)
}

// part URI comparison is case-insensitive per OPC
func uriKey(name string) string {
	return strings.ToLower(CleanURI(name))
}

func Open(fpath string, mode Mode) (*Store, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	s := &Store{path: fpath, mode: mode, f: f}
	if err := s.load(); err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	size, err := s.f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	zr, err := zip.NewReader(s.f, size)
	if err != nil {
		return err
	}
	s.entries = make(map[string]*entry, len(zr.File))
	s.order = s.order[:0]
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			// directory entries are not parts
			continue
		}
		uri := CleanURI(zf.Name)
		key := uriKey(uri)
		if _, ok := s.entries[key]; ok {
			return fmt.Errorf("duplicate zip entry: %s", zf.Name)
		}
		s.entries[key] = &entry{uri: uri, zf: zf}
		s.order = append(s.order, key)
	}
	return nil
}

func (s *Store) IsDirty() bool {
	return s.dirty
}

func (s *Store) ReadOnly() bool {
	return s.mode != ModeReadWrite
}

func (s *Store) HasPart(uri string) bool {
	_, ok := s.entries[uriKey(uri)]
	return ok
}

// Parts returns the canonical URIs of all live parts in archive order.
func (s *Store) Parts() []string {
	uris := make([]string, 0, len(s.order))
	for _, key := range s.order {
		uris = append(uris, s.entries[key].uri)
	}
	return uris
}

func (s *Store) Read(uri string) ([]byte, error) {
	e := s.entries[uriKey(uri)]
	if e == nil {
		return nil, fmt.Errorf("part not found: %s", CleanURI(uri))
	}
	if e.buffered {
		data := make([]byte, len(e.data))
		copy(data, e.data)
		return data, nil
	}
	r, err := e.zf.Open()
	if err != nil {
		return nil, fmt.Errorf("reading part %s: %w", e.uri, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *Store) Write(uri string, data []byte) error {
	if s.mode != ModeReadWrite {
		return ErrReadOnly
	}
	uri = CleanURI(uri)
	key := uriKey(uri)
	e := s.entries[key]
	if e == nil {
		e = &entry{uri: uri}
		s.entries[key] = e
		s.order = append(s.order, key)
	}
	e.zf = nil
	e.data = data
	e.buffered = true
	s.dirty = true
	return nil
}

func (s *Store) Delete(uri string) error {
	if s.mode != ModeReadWrite {
		return ErrReadOnly
	}
	key := uriKey(uri)
	if _, ok := s.entries[key]; !ok {
		return fmt.Errorf("part not found: %s", CleanURI(uri))
	}
	delete(s.entries, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.dirty = true
	return nil
}

// Flush rewrites the archive with all buffered mutations applied. Entries
// that were not touched are copied through without recompression. On any
// error the original file is left intact.
func (s *Store) Flush() error {
	if !s.dirty {
		return nil
	}
	if s.mode != ModeReadWrite {
		return ErrReadOnly
	}
	af, err := atomicfile.Create(s.path)
	if err != nil {
		return err
	}
	defer af.Cancel()
	zw := zip.NewWriter(af)
	for _, key := range s.order {
		if err := s.copyEntry(zw, s.entries[key]); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return err
	}
	// the old handle must be released before the rename on some platforms
	if err := s.f.Close(); err != nil {
		return err
	}
	if err := af.Commit(); err != nil {
		return err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	s.f = f
	if err := s.load(); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *Store) copyEntry(zw *zip.Writer, e *entry) error {
	if e.buffered {
		hdr := &zip.FileHeader{
			Name:     strings.TrimPrefix(e.uri, "/"),
			Method:   zip.Deflate,
			Modified: time.Now(),
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		_, err = w.Write(e.data)
		return err
	}
	hdr := e.zf.FileHeader
	w, err := zw.CreateRaw(&hdr)
	if err != nil {
		return err
	}
	r, err := e.zf.OpenRaw()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// Close releases the archive handle. Buffered mutations that were not
// flushed are discarded.
func (s *Store) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
