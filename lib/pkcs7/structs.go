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

// Package pkcs7 implements the subset of CMS SignedData needed to carry
// and inspect RFC 3161 timestamp tokens.
package pkcs7

import (
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
)

var (
	OidData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	OidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
	OidTSTInfo    = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 16, 1, 4}
)

type ContentInfoSignedData struct {
	ContentType asn1.ObjectIdentifier
	Content     SignedData `asn1:"explicit,optional,tag:0"`
}

type SignedData struct {
	Version                    int                        `asn1:"default:1"`
	DigestAlgorithmIdentifiers []pkix.AlgorithmIdentifier `asn1:"set"`
	ContentInfo                ContentInfo
	Certificates               RawCertificates        `asn1:"optional,tag:0"`
	CRLs                       []pkix.CertificateList `asn1:"optional,tag:1"`
	SignerInfos                []SignerInfo           `asn1:"set"`
}

type ContentInfo struct {
	ContentType asn1.ObjectIdentifier
	Value       asn1.RawValue `asn1:"optional,explicit,tag:0"`
}

type RawCertificates struct {
	Raw asn1.RawContent
}

type SignerInfo struct {
	Version                   int `asn1:"default:1"`
	IssuerAndSerialNumber     IssuerAndSerial
	DigestAlgorithm           pkix.AlgorithmIdentifier
	AuthenticatedAttributes   []Attribute `asn1:"optional,tag:0"`
	DigestEncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedDigest           []byte
	UnauthenticatedAttributes []Attribute `asn1:"optional,tag:1"`
}

type IssuerAndSerial struct {
	IssuerName   asn1.RawValue
	SerialNumber *big.Int
}

type Attribute struct {
	Type  asn1.ObjectIdentifier
	Value asn1.RawValue `asn1:"set"`
}

// Unmarshal parses a DER-encoded ContentInfo holding SignedData.
func Unmarshal(der []byte) (*ContentInfoSignedData, error) {
	psd := new(ContentInfoSignedData)
	rest, err := asn1.Unmarshal(der, psd)
	if err != nil {
		return nil, err
	} else if len(rest) != 0 {
		return nil, errors.New("pkcs7: trailing bytes after structure")
	} else if !psd.ContentType.Equal(OidSignedData) {
		return nil, fmt.Errorf("pkcs7: not signedData: %s", psd.ContentType)
	}
	return psd, nil
}

func (psd *ContentInfoSignedData) Marshal() ([]byte, error) {
	return asn1.Marshal(*psd)
}

// Bytes returns the inner content octets. A nested dummy OCTET STRING
// wrapper, as emitted by some TSAs, is unwrapped.
func (ci ContentInfo) Bytes() ([]byte, error) {
	if ci.Value.Bytes == nil {
		return nil, errors.New("pkcs7: missing content")
	}
	blob := ci.Value.Bytes
	if len(blob) > 0 && blob[0] == 0x04 {
		if _, err := asn1.Unmarshal(blob, &blob); err != nil {
			return nil, err
		}
	}
	return blob, nil
}

// Parse the raw certificate blob into X509 certificates.
func (raw RawCertificates) Parse() ([]*x509.Certificate, error) {
	if len(raw.Raw) == 0 {
		return nil, nil
	}
	var val asn1.RawValue
	if _, err := asn1.Unmarshal(raw.Raw, &val); err != nil {
		return nil, err
	}
	return x509.ParseCertificates(val.Bytes)
}
