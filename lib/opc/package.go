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

// Package opc models an Open Packaging Conventions package: a ZIP part
// store plus the content-type registry and per-part relationship
// collections that describe it.
package opc

import (
	"crypto/rand"
	"io"
	"strings"

	"github.com/vsixsign/vsixsign/lib/opczip"
)

type Package struct {
	ContentTypes *ContentTypes

	// Rand supplies randomness for generated relationship ids.
	Rand io.Reader

	store *opczip.Store
	rels  map[string]*Relationships // keyed by lowercased source URI
}

func Open(path string, mode opczip.Mode) (*Package, error) {
	store, err := opczip.Open(path, mode)
	if err != nil {
		return nil, err
	}
	p := &Package{
		store: store,
		rels:  make(map[string]*Relationships),
		Rand:  rand.Reader,
	}
	if store.HasPart(ContentTypesURI) {
		blob, err := store.Read(ContentTypesURI)
		if err != nil {
			store.Close()
			return nil, err
		}
		p.ContentTypes, err = ParseContentTypes(blob)
		if err != nil {
			store.Close()
			return nil, err
		}
	} else {
		p.ContentTypes = NewContentTypes()
	}
	return p, nil
}

func (p *Package) HasPart(uri string) bool {
	return p.store.HasPart(uri)
}

func (p *Package) Read(uri string) ([]byte, error) {
	return p.store.Read(uri)
}

func (p *Package) Write(uri string, data []byte) error {
	return p.store.Write(uri, data)
}

func (p *Package) Delete(uri string) error {
	return p.store.Delete(uri)
}

// Parts returns the URIs of all live parts in archive order.
func (p *Package) Parts() []string {
	return p.store.Parts()
}

// Resolve returns the content type of a part via the registry.
func (p *Package) Resolve(partURI string) (string, error) {
	return p.ContentTypes.Resolve(partURI)
}

// Rels returns the relationship collection owned by the given source part,
// parsing it on first use. Pass "/" for the package root.
func (p *Package) Rels(source string) (*Relationships, error) {
	if source == "" {
		source = "/"
	}
	key := strings.ToLower(source)
	if r := p.rels[key]; r != nil {
		return r, nil
	}
	relsURI := RelsPartURI(source)
	var r *Relationships
	if p.store.HasPart(relsURI) {
		blob, err := p.store.Read(relsURI)
		if err != nil {
			return nil, err
		}
		r, err = ParseRelationships(source, blob)
		if err != nil {
			return nil, err
		}
	} else {
		r = NewRelationships(source)
	}
	p.rels[key] = r
	return r, nil
}

// DropRels forgets the cached relationship collection for a source whose
// backing part was deleted outright.
func (p *Package) DropRels(source string) {
	if source == "" {
		source = "/"
	}
	delete(p.rels, strings.ToLower(source))
}

func (p *Package) IsDirty() bool {
	if p.store.IsDirty() || p.ContentTypes.IsDirty() {
		return true
	}
	for _, r := range p.rels {
		if r.IsDirty() {
			return true
		}
	}
	return false
}

func (p *Package) ReadOnly() bool {
	return p.store.ReadOnly()
}

// Sync serializes dirty relationship collections and the content-type
// registry into the part store without rewriting the archive. Relationship
// collections that became empty have their .rels part deleted.
func (p *Package) Sync() error {
	for _, r := range p.rels {
		if !r.IsDirty() {
			continue
		}
		relsURI := RelsPartURI(r.Source())
		if r.Len() == 0 {
			if p.store.HasPart(relsURI) {
				if err := p.store.Delete(relsURI); err != nil {
					return err
				}
			}
			r.markClean()
			continue
		}
		blob, err := r.Marshal()
		if err != nil {
			return err
		}
		if err := p.store.Write(relsURI, blob); err != nil {
			return err
		}
		r.markClean()
	}
	if p.ContentTypes.IsDirty() {
		blob, err := p.ContentTypes.Marshal()
		if err != nil {
			return err
		}
		if err := p.store.Write(ContentTypesURI, blob); err != nil {
			return err
		}
		p.ContentTypes.markClean()
	}
	return nil
}

// Flush serializes dirty metadata and rewrites the archive.
func (p *Package) Flush() error {
	if err := p.Sync(); err != nil {
		return err
	}
	return p.store.Flush()
}

// Close releases the archive without flushing; buffered changes are lost.
func (p *Package) Close() error {
	return p.store.Close()
}
