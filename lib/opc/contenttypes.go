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
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/beevik/etree"
)

const (
	NsContentTypes = "http://schemas.openxmlformats.org/package/2006/content-types"

	// ContentTypesURI is the well-known location of the registry part.
	ContentTypesURI = "/[Content_Types].xml"

	RelationshipContentType = "application/vnd.openxmlformats-package.relationships+xml"
)

type ctKind int

const (
	ctDefault ctKind = iota
	ctOverride
)

type ctEntry struct {
	kind        ctKind
	key         string // extension without dot (lowercased) or part URI
	contentType string
}

// ContentTypes is the parsed [Content_Types].xml registry. Entries keep
// their document order so that serialization round-trips stably.
type ContentTypes struct {
	entries []ctEntry
	dirty   bool
}

func NewContentTypes() *ContentTypes {
	return new(ContentTypes)
}

// ParseContentTypes decodes the registry, preserving the interleaved order
// of Default and Override entries.
func ParseContentTypes(blob []byte) (*ContentTypes, error) {
	c := new(ContentTypes)
	dec := xml.NewDecoder(bytes.NewReader(blob))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, MalformedPackageError{Part: ContentTypesURI, Reason: err.Error()}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "Types":
			if start.Name.Space != NsContentTypes {
				return nil, MalformedPackageError{Part: ContentTypesURI, Reason: "unexpected root namespace " + start.Name.Space}
			}
		case "Default":
			ext := attrValue(start, "Extension")
			ctype := attrValue(start, "ContentType")
			if ext == "" || ctype == "" {
				return nil, MalformedPackageError{Part: ContentTypesURI, Reason: "Default entry missing Extension or ContentType"}
			}
			c.entries = append(c.entries, ctEntry{ctDefault, strings.ToLower(ext), ctype})
		case "Override":
			part := attrValue(start, "PartName")
			ctype := attrValue(start, "ContentType")
			if part == "" || ctype == "" {
				return nil, MalformedPackageError{Part: ContentTypesURI, Reason: "Override entry missing PartName or ContentType"}
			}
			c.entries = append(c.entries, ctEntry{ctOverride, part, ctype})
		}
	}
	return c, nil
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// Resolve returns the content type for a part, consulting Override entries
// first and then Default entries by extension.
func (c *ContentTypes) Resolve(partURI string) (string, error) {
	for _, e := range c.entries {
		if e.kind == ctOverride && strings.EqualFold(e.key, partURI) {
			return e.contentType, nil
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(partURI)), "."))
	if ext != "" {
		for _, e := range c.entries {
			if e.kind == ctDefault && e.key == ext {
				return e.contentType, nil
			}
		}
	}
	return "", UnknownContentTypeError{Part: partURI}
}

// AddDefault maps an extension (without dot) to a content type.
func (c *ContentTypes) AddDefault(ext, contentType string) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for i, e := range c.entries {
		if e.kind == ctDefault && e.key == ext {
			if e.contentType != contentType {
				c.entries[i].contentType = contentType
				c.dirty = true
			}
			return
		}
	}
	c.entries = append(c.entries, ctEntry{ctDefault, ext, contentType})
	c.dirty = true
}

// AddOverride maps a single part URI to a content type.
func (c *ContentTypes) AddOverride(partURI, contentType string) {
	for i, e := range c.entries {
		if e.kind == ctOverride && strings.EqualFold(e.key, partURI) {
			if e.contentType != contentType {
				c.entries[i].contentType = contentType
				c.dirty = true
			}
			return
		}
	}
	c.entries = append(c.entries, ctEntry{ctOverride, partURI, contentType})
	c.dirty = true
}

// RemoveOverride drops the Override entry for a part, if present.
func (c *ContentTypes) RemoveOverride(partURI string) {
	for i, e := range c.entries {
		if e.kind == ctOverride && strings.EqualFold(e.key, partURI) {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			c.dirty = true
			return
		}
	}
}

func (c *ContentTypes) IsDirty() bool {
	return c.dirty
}

func (c *ContentTypes) markClean() {
	c.dirty = false
}

func (c *ContentTypes) Marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", NsContentTypes)
	for _, e := range c.entries {
		switch e.kind {
		case ctDefault:
			el := root.CreateElement("Default")
			el.CreateAttr("Extension", e.key)
			el.CreateAttr("ContentType", e.contentType)
		case ctOverride:
			el := root.CreateElement("Override")
			el.CreateAttr("PartName", e.key)
			el.CreateAttr("ContentType", e.contentType)
		}
	}
	return doc.WriteToBytes()
}
