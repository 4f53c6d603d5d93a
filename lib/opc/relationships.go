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

package opc

import (
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/beevik/etree"
)

const NsRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

type Relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// Relationships is the relationship collection owned by one source part.
// Ids are unique among siblings only.
type Relationships struct {
	source string // owning part URI, "/" for the package root
	rels   []Relationship
	dirty  bool
}

type xmlRelationships struct {
	XMLName      xml.Name `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Relationship []xmlRelationship
}

type xmlRelationship struct {
	Id         string `xml:",attr"`
	Type       string `xml:",attr"`
	Target     string `xml:",attr"`
	TargetMode string `xml:",attr,omitempty"`
}

// RelsPartURI returns the URI of the .rels part holding the relationships
// of the given source part. The root collection lives at /_rels/.rels.
func RelsPartURI(source string) string {
	if source == "" || source == "/" {
		return "/_rels/.rels"
	}
	return path.Join(path.Dir(source), "_rels", path.Base(source)+".rels")
}

// IsRelsPart reports whether a part URI names a relationships part.
func IsRelsPart(uri string) bool {
	return strings.EqualFold(path.Ext(uri), ".rels") &&
		strings.EqualFold(path.Base(path.Dir(uri)), "_rels")
}

// RelsSource maps a .rels part URI back to its owning part ("/" for the
// package root).
func RelsSource(relsURI string) string {
	dir := path.Dir(path.Dir(relsURI))
	base := strings.TrimSuffix(path.Base(relsURI), path.Ext(relsURI))
	if base == "" {
		if dir == "/" {
			return "/"
		}
		return dir
	}
	return path.Join(dir, base)
}

func NewRelationships(source string) *Relationships {
	return &Relationships{source: source}
}

func ParseRelationships(source string, blob []byte) (*Relationships, error) {
	var xr xmlRelationships
	if err := xml.Unmarshal(blob, &xr); err != nil {
		return nil, MalformedPackageError{Part: RelsPartURI(source), Reason: err.Error()}
	}
	r := &Relationships{source: source}
	for _, rel := range xr.Relationship {
		if rel.Id == "" || rel.Type == "" || rel.Target == "" {
			return nil, MalformedPackageError{Part: RelsPartURI(source), Reason: "Relationship missing Id, Type or Target"}
		}
		r.rels = append(r.rels, Relationship{rel.Id, rel.Type, rel.Target, rel.TargetMode})
	}
	return r, nil
}

func (r *Relationships) Source() string {
	return r.source
}

func (r *Relationships) Len() int {
	return len(r.rels)
}

func (r *Relationships) IsDirty() bool {
	return r.dirty
}

func (r *Relationships) markClean() {
	r.dirty = false
}

// All returns the relationships in document order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.rels))
	copy(out, r.rels)
	return out
}

func (r *Relationships) ByID(id string) *Relationship {
	for i := range r.rels {
		if r.rels[i].ID == id {
			return &r.rels[i]
		}
	}
	return nil
}

func (r *Relationships) ByType(relType string) []Relationship {
	var out []Relationship
	for _, rel := range r.rels {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out
}

// Add appends a relationship with a generated id of the form R<hex32>,
// retrying until the id is unique among the collection's siblings. The
// randomness source is injectable for deterministic tests.
func (r *Relationships) Add(rand io.Reader, relType, target string) (string, error) {
	var buf [4]byte
	for {
		if _, err := io.ReadFull(rand, buf[:]); err != nil {
			return "", fmt.Errorf("generating relationship id: %w", err)
		}
		id := fmt.Sprintf("R%08X", binary.BigEndian.Uint32(buf[:]))
		if r.ByID(id) == nil {
			r.rels = append(r.rels, Relationship{ID: id, Type: relType, Target: target})
			r.dirty = true
			return id, nil
		}
	}
}

func (r *Relationships) Remove(id string) error {
	for i := range r.rels {
		if r.rels[i].ID == id {
			r.rels = append(r.rels[:i], r.rels[i+1:]...)
			r.dirty = true
			return nil
		}
	}
	return fmt.Errorf("relationship not found: %s", id)
}

func (r *Relationships) Marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", NsRelationships)
	for _, rel := range r.rels {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.ID)
		el.CreateAttr("Type", rel.Type)
		el.CreateAttr("Target", rel.Target)
		if rel.TargetMode != "" {
			el.CreateAttr("TargetMode", rel.TargetMode)
		}
	}
	return doc.WriteToBytes()
}
