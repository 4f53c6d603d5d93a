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

package xmldsig

import (
	"errors"
	"sort"

	"github.com/beevik/etree"
)

const nsOpcRelationships = "http://schemas.openxmlformats.org/package/2006/relationships"

// relationship attributes retained by the transform, in emission order
var relationshipAttrs = []string{"Id", "Type", "Target", "TargetMode"}

// RelationshipsTransform applies the OPC relationships transform to a
// relationships part: Relationship elements whose Id is in sourceIds (all
// of them when sourceIds is nil) are retained, sorted by Id in code-point
// order, stripped down to the Id, Type, Target and TargetMode attributes,
// and the result is canonicalized.
func RelationshipsTransform(blob []byte, sourceIds []string) ([]byte, error) {
	blob = normalizeLineEndings(blob)
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(blob); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "Relationships" {
		return nil, errors.New("relationships transform: not a Relationships document")
	}
	var keep map[string]bool
	if sourceIds != nil {
		keep = make(map[string]bool, len(sourceIds))
		for _, id := range sourceIds {
			keep[id] = true
		}
	}
	var retained []*etree.Element
	for _, el := range root.ChildElements() {
		if el.Tag != "Relationship" {
			continue
		}
		id := el.SelectAttrValue("Id", "")
		if keep != nil && !keep[id] {
			continue
		}
		retained = append(retained, el)
	}
	sort.SliceStable(retained, func(i, j int) bool {
		return retained[i].SelectAttrValue("Id", "") < retained[j].SelectAttrValue("Id", "")
	})
	out := etree.NewElement("Relationships")
	out.CreateAttr("xmlns", root.SelectAttrValue("xmlns", nsOpcRelationships))
	for _, el := range retained {
		rel := out.CreateElement("Relationship")
		for _, name := range relationshipAttrs {
			if attr := el.SelectAttr(name); attr != nil {
				rel.CreateAttr(name, attr.Value)
			}
		}
	}
	return SerializeCanonical(out)
}
