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
	"crypto"
	"crypto/ecdsa"
	"crypto/rand"
	"fmt"

	"github.com/beevik/etree"

	"github.com/vsixsign/vsixsign/lib/x509tools"
)

// HashCanon canonicalizes the subtree rooted at elem and digests it.
func HashCanon(elem *etree.Element, hash crypto.Hash) ([]byte, error) {
	canon, err := SerializeCanonical(elem)
	if err != nil {
		return nil, fmt.Errorf("xmldsig: %w", err)
	}
	d := hash.New()
	d.Write(canon)
	return d.Sum(nil), nil
}

// RawSignature signs a precomputed digest with the private key. ECDSA
// signatures are reformatted from their ASN.1 structure to the packed r||s
// form that XML-DSig uses.
func RawSignature(privKey crypto.Signer, hash crypto.Hash, digest []byte) ([]byte, error) {
	sig, err := privKey.Sign(rand.Reader, digest, hash)
	if err != nil {
		return nil, err
	}
	if _, ok := privKey.Public().(*ecdsa.PublicKey); ok {
		esig, err := x509tools.UnmarshalEcdsaSignature(sig)
		if err != nil {
			return nil, err
		}
		sig = esig.Pack()
	}
	return sig, nil
}
