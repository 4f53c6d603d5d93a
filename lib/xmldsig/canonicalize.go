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

// Implements the subset of XML canonicalization that OPC signing needs:
// Canonical XML 1.0 without comments, plus the OPC relationships transform.
// Documents produced by this package round-trip through it byte-identically;
// full conformance against arbitrary third-party documents is not a goal.
package xmldsig

import (
	"bytes"
	"errors"
	"sort"

	"github.com/beevik/etree"
)

// Canonicalize parses an XML document and returns its canonical form. The
// XML declaration, DOCTYPE, comments and processing instructions are
// dropped, line endings are normalized to LF, and attributes are emitted in
// canonical order. Identical inputs produce byte-identical outputs.
func Canonicalize(blob []byte) ([]byte, error) {
	blob = normalizeLineEndings(blob)
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(blob); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return SerializeCanonical(root)
}

// SerializeCanonical renders the subtree rooted at elem as canonical XML.
// The element may sit anywhere inside a document: namespace declarations
// that are in scope from its ancestors are folded in, and every
// declaration is emitted at the outermost output element that needs it,
// which also drops unused and redundant declarations.
func SerializeCanonical(elem *etree.Element) ([]byte, error) {
	root := renderElement(elem, inheritedScope(elem), nil)
	doc := etree.NewDocument()
	doc.SetRoot(root)
	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.WriteSettings.CanonicalAttrVal = true
	return doc.WriteToBytes()
}

func normalizeLineEndings(blob []byte) []byte {
	blob = bytes.ReplaceAll(blob, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(blob, []byte("\r"), []byte("\n"))
}

// declPrefix returns the prefix bound by attr when attr is a namespace
// declaration ("" for the default namespace).
func declPrefix(attr etree.Attr) (string, bool) {
	switch {
	case attr.Space == "" && attr.Key == "xmlns":
		return "", true
	case attr.Space == "xmlns":
		return attr.Key, true
	}
	return "", false
}

// inheritedScope collects the namespace declarations visible at elem from
// its ancestors, innermost binding winning.
func inheritedScope(elem *etree.Element) map[string]string {
	scope := make(map[string]string)
	for p := elem.Parent(); p != nil; p = p.Parent() {
		for _, attr := range p.Attr {
			prefix, ok := declPrefix(attr)
			if !ok {
				continue
			}
			if _, seen := scope[prefix]; !seen {
				scope[prefix] = attr.Value
			}
		}
	}
	return scope
}

// renderElement rebuilds elem for canonical output. scope holds the
// declarations visible in the source document at this element; emitted
// holds the ones already written by an output ancestor. A declaration is
// written here exactly when this element is the first in the output to
// need it with that value.
func renderElement(elem *etree.Element, scope, emitted map[string]string) *etree.Element {
	out := etree.NewElement(elem.Tag)
	out.Space = elem.Space

	// fold this element's own declarations into the visible scope
	var attrs []etree.Attr
	ownDecls := false
	for _, attr := range elem.Attr {
		if prefix, ok := declPrefix(attr); ok {
			if !ownDecls {
				scope = cloneScope(scope)
				ownDecls = true
			}
			scope[prefix] = attr.Value
		} else {
			attrs = append(attrs, attr)
		}
	}

	// prefixes this element actually uses: its own, and those of its
	// attributes (unprefixed attributes are in no namespace)
	need := make(map[string]bool)
	if elem.Space != "" || scope[""] != "" {
		need[elem.Space] = true
	}
	for _, attr := range attrs {
		if attr.Space != "" {
			need[attr.Space] = true
		}
	}
	var missing []string
	for prefix := range need {
		uri, declared := scope[prefix]
		if declared && emitted[prefix] != uri {
			missing = append(missing, prefix)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing) // the default namespace sorts first
		emitted = cloneScope(emitted)
		for _, prefix := range missing {
			name := "xmlns"
			if prefix != "" {
				name = "xmlns:" + prefix
			}
			out.CreateAttr(name, scope[prefix])
			emitted[prefix] = scope[prefix]
		}
	}
	sort.SliceStable(attrs, func(i, j int) bool {
		if attrs[i].Space != attrs[j].Space {
			return attrs[i].Space < attrs[j].Space
		}
		return attrs[i].Key < attrs[j].Key
	})
	for _, attr := range attrs {
		name := attr.Key
		if attr.Space != "" {
			name = attr.Space + ":" + attr.Key
		}
		out.CreateAttr(name, attr.Value)
	}

	// character data survives; comments, directives and processing
	// instructions do not
	for _, child := range elem.Child {
		switch t := child.(type) {
		case *etree.Element:
			out.AddChild(renderElement(t, scope, emitted))
		case *etree.CharData:
			out.CreateText(t.Data)
		}
	}
	return out
}

func cloneScope(scope map[string]string) map[string]string {
	out := make(map[string]string, len(scope)+1)
	for prefix, uri := range scope {
		out[prefix] = uri
	}
	return out
}
