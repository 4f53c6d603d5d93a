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
	"crypto/rsa"
	"encoding/xml"
	"errors"
	"strings"

	// register the digests named in the algorithm tables
	_ "crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
)

const (
	NsXMLDsig     = "http://www.w3.org/2000/09/xmldsig#"
	NsXMLDsigMore = "http://www.w3.org/2001/04/xmldsig-more#"
	NsXMLEnc      = "http://www.w3.org/2001/04/xmlenc#"
	NsXAdES       = "http://uri.etsi.org/01903/v1.3.2#"

	// Canonical XML 1.0 without comments
	AlgC14N = "http://www.w3.org/TR/2001/REC-xml-c14n-20010315"
	// OPC relationships transform (ECMA-376 part 2)
	AlgRelationshipsTransform = "http://schemas.openxmlformats.org/package/2006/RelationshipTransform"
)

var hashNames = map[crypto.Hash]string{
	crypto.SHA1:   "sha1",
	crypto.SHA256: "sha256",
	crypto.SHA384: "sha384",
	crypto.SHA512: "sha512",
}

// HashUris maps a hash to its DigestMethod algorithm URI.
var HashUris = map[crypto.Hash]string{
	crypto.SHA1:   NsXMLDsig + "sha1",
	crypto.SHA256: NsXMLEnc + "sha256",
	crypto.SHA384: NsXMLDsigMore + "sha384",
	crypto.SHA512: NsXMLEnc + "sha512",
}

// HashByName resolves a lowercase digest name like "sha256".
func HashByName(name string) (crypto.Hash, error) {
	for hash, hashName := range hashNames {
		if hashName == strings.ToLower(name) {
			return hash, nil
		}
	}
	return 0, errors.New("unsupported digest algorithm: " + name)
}

// HashAlgorithm maps a DigestMethod or SignatureMethod URI back to a hash.
func HashAlgorithm(uri string) (crypto.Hash, bool) {
	i := strings.LastIndexByte(uri, '#')
	if i < 0 {
		return 0, false
	}
	frag := uri[i+1:]
	if j := strings.LastIndexByte(frag, '-'); j >= 0 {
		frag = frag[j+1:]
	}
	for hash, name := range hashNames {
		if name == frag {
			return hash, true
		}
	}
	return 0, false
}

// SignatureMethod returns the SignatureMethod algorithm URI for the given
// hash and key type. SHA-1 with RSA is the only combination living in the
// original xmldsig namespace; everything else comes from xmldsig-more.
func SignatureMethod(hash crypto.Hash, pubKey crypto.PublicKey) (string, error) {
	hashName := hashNames[hash]
	if hashName == "" {
		return "", errors.New("unsupported digest algorithm")
	}
	switch pubKey.(type) {
	case *rsa.PublicKey:
		if hash == crypto.SHA1 {
			return NsXMLDsig + "rsa-sha1", nil
		}
		return NsXMLDsigMore + "rsa-" + hashName, nil
	case *ecdsa.PublicKey:
		return NsXMLDsigMore + "ecdsa-" + hashName, nil
	default:
		return "", errors.New("unsupported key type")
	}
}

// Parsed form of an existing Signature part, enough to enumerate and
// countersign it.
type Signature struct {
	XMLName xml.Name `xml:"http://www.w3.org/2000/09/xmldsig# Signature"`

	Id                     string      `xml:",attr"`
	CanonicalizationMethod method      `xml:"SignedInfo>CanonicalizationMethod"`
	SignatureMethod        method      `xml:"SignedInfo>SignatureMethod"`
	References             []Reference `xml:"SignedInfo>Reference"`
	SignatureValue         string      `xml:"SignatureValue"`
	X509Certificates       []string    `xml:"KeyInfo>X509Data>X509Certificate"`
}

type Reference struct {
	URI          string   `xml:",attr"`
	Type         string   `xml:",attr"`
	Transforms   []method `xml:"Transforms>Transform"`
	DigestMethod method
	DigestValue  string
}

type method struct {
	Algorithm string `xml:",attr"`
}

func (m method) URI() string {
	return m.Algorithm
}

// Parse decodes a detached Signature document.
func Parse(blob []byte) (*Signature, error) {
	sig := new(Signature)
	if err := xml.Unmarshal(blob, sig); err != nil {
		return nil, err
	}
	return sig, nil
}
