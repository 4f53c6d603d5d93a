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
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"path"

	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

// Signature is a handle to one existing signature inside a package.
type Signature struct {
	pkg     *opc.Package
	partURI string
	relID   string

	parsed *xmldsig.Signature
}

// Signatures discovers the signatures registered through the package's
// signature-origin part.
func Signatures(pkg *opc.Package) ([]*Signature, error) {
	rootRels, err := pkg.Rels("/")
	if err != nil {
		return nil, err
	}
	var sigs []*Signature
	for _, originRel := range rootRels.ByType(SigOriginRelType) {
		originURI := path.Clean("/" + originRel.Target)
		originRels, err := pkg.Rels(originURI)
		if err != nil {
			return nil, err
		}
		for _, rel := range originRels.ByType(SigRelType) {
			sigs = append(sigs, &Signature{
				pkg:     pkg,
				partURI: path.Clean("/" + rel.Target),
				relID:   rel.ID,
			})
		}
	}
	return sigs, nil
}

// PartURI returns the signature part location, or "" once removed.
func (s *Signature) PartURI() string {
	return s.partURI
}

// Parse reads and decodes the signature part.
func (s *Signature) Parse() (*xmldsig.Signature, error) {
	if s.partURI == "" {
		return nil, opc.ErrInvalidOperation
	}
	if s.parsed != nil {
		return s.parsed, nil
	}
	blob, err := s.pkg.Read(s.partURI)
	if err != nil {
		return nil, err
	}
	parsed, err := xmldsig.Parse(blob)
	if err != nil {
		return nil, opc.MalformedPackageError{Part: s.partURI, Reason: err.Error()}
	}
	s.parsed = parsed
	return parsed, nil
}

// SignatureValue returns the decoded signature bytes.
func (s *Signature) SignatureValue() ([]byte, error) {
	parsed, err := s.Parse()
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(parsed.SignatureValue)
}

// Certificates returns the X509 chain embedded in KeyInfo, leaf first.
func (s *Signature) Certificates() ([]*x509.Certificate, error) {
	parsed, err := s.Parse()
	if err != nil {
		return nil, err
	}
	var certs []*x509.Certificate
	for _, text := range parsed.X509Certificates {
		der, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("decoding X509Certificate: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// Remove deletes the signature part and its registration. When the last
// signature goes, the origin part and the root relationship go with it.
// The handle is dead afterwards; further operations fail.
func (s *Signature) Remove() error {
	if s.partURI == "" {
		return opc.ErrInvalidOperation
	}
	if s.pkg.HasPart(s.partURI) {
		if err := s.pkg.Delete(s.partURI); err != nil {
			return err
		}
	}
	// the signature's own .rels part, if any (detached certificates)
	sigRelsURI := opc.RelsPartURI(s.partURI)
	if s.pkg.HasPart(sigRelsURI) {
		if err := s.pkg.Delete(sigRelsURI); err != nil {
			return err
		}
		s.pkg.DropRels(s.partURI)
	}
	originRels, err := s.pkg.Rels(OriginPartURI)
	if err != nil {
		return err
	}
	if originRels.ByID(s.relID) != nil {
		if err := originRels.Remove(s.relID); err != nil {
			return err
		}
	}
	if len(originRels.ByType(SigRelType)) == 0 {
		if s.pkg.HasPart(OriginPartURI) {
			if err := s.pkg.Delete(OriginPartURI); err != nil {
				return err
			}
		}
		rootRels, err := s.pkg.Rels("/")
		if err != nil {
			return err
		}
		for _, rel := range rootRels.ByType(SigOriginRelType) {
			if err := rootRels.Remove(rel.ID); err != nil {
				return err
			}
		}
	}
	s.partURI = ""
	s.parsed = nil
	return nil
}
