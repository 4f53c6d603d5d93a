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

package opcsign

import (
	"strings"

	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

// Preset enumerates the references appropriate to a package flavor.
type Preset interface {
	References(pkg *opc.Package) ([]PartReference, error)
}

// VSIXPreset references every content part of a VSIX package, plus one
// relationships-transform reference per .rels part that still has
// non-signature relationships.
type VSIXPreset struct{}

// isSignaturePart reports whether a part belongs to the digital-signature
// infrastructure rather than the package content.
func isSignaturePart(uri string) bool {
	lower := strings.ToLower(uri)
	return lower == strings.ToLower(OriginPartURI) ||
		strings.HasPrefix(lower, strings.ToLower(digSigDirURI)+"/")
}

func (VSIXPreset) References(pkg *opc.Package) ([]PartReference, error) {
	var refs []PartReference
	for _, uri := range pkg.Parts() {
		if strings.EqualFold(uri, opc.ContentTypesURI) {
			continue
		}
		if isSignaturePart(uri) {
			continue
		}
		if opc.IsRelsPart(uri) {
			ref, ok, err := relsReference(pkg, uri)
			if err != nil {
				return nil, err
			}
			if ok {
				refs = append(refs, ref)
			}
			continue
		}
		ctype, err := pkg.Resolve(uri)
		if err != nil {
			return nil, err
		}
		refs = append(refs, PartReference{URI: uri, ContentType: ctype})
	}
	return refs, nil
}

// relsReference builds the relationships-transform reference for one .rels
// part, pinned to the ids of its non-signature relationships. Collections
// with nothing left after filtering are not referenced.
func relsReference(pkg *opc.Package, relsURI string) (PartReference, bool, error) {
	rels, err := pkg.Rels(opc.RelsSource(relsURI))
	if err != nil {
		return PartReference{}, false, err
	}
	var ids []string
	for _, rel := range rels.All() {
		switch rel.Type {
		case SigOriginRelType, SigRelType:
			continue
		}
		ids = append(ids, rel.ID)
	}
	if len(ids) == 0 {
		return PartReference{}, false, nil
	}
	return PartReference{
		URI:         relsURI,
		ContentType: opc.RelationshipContentType,
		Transforms: []Transform{
			{Algorithm: xmldsig.AlgRelationshipsTransform, SourceIds: ids},
			{Algorithm: xmldsig.AlgC14N},
		},
	}, true, nil
}
