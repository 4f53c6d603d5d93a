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
	"crypto"
	"fmt"
	"strings"

	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

// Transform names one transform applied to a reference before digesting.
// SourceIds configures the relationships transform; nil retains all.
type Transform struct {
	Algorithm string
	SourceIds []string
}

// PartReference is one part enqueued for signing: its URI, resolved
// content type, and the transform chain to apply before hashing.
type PartReference struct {
	URI         string
	ContentType string
	Transforms  []Transform
}

func isXMLContentType(ctype string) bool {
	switch ctype {
	case "text/xml", "application/xml":
		return true
	}
	return strings.HasSuffix(ctype, "+xml")
}

// digester hashes parts, applying transforms to XML parts.
type digester struct {
	pkg  *opc.Package
	hash crypto.Hash
}

// digest returns the raw digest of a part after its transform chain. A
// part whose content type is not XML is hashed as raw bytes; a declared
// XML part that fails to parse under a transform is malformed.
func (d digester) digest(ref PartReference) ([]byte, error) {
	blob, err := d.pkg.Read(ref.URI)
	if err != nil {
		return nil, err
	}
	if len(ref.Transforms) > 0 && isXMLContentType(ref.ContentType) {
		for _, tf := range ref.Transforms {
			switch tf.Algorithm {
			case xmldsig.AlgC14N:
				blob, err = xmldsig.Canonicalize(blob)
			case xmldsig.AlgRelationshipsTransform:
				blob, err = xmldsig.RelationshipsTransform(blob, tf.SourceIds)
			default:
				return nil, fmt.Errorf("unsupported transform: %s", tf.Algorithm)
			}
			if err != nil {
				return nil, opc.MalformedPackageError{Part: ref.URI, Reason: err.Error()}
			}
		}
	}
	h := d.hash.New()
	h.Write(blob)
	return h.Sum(nil), nil
}
