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

// Package certloader loads signing identities, certificate plus private
// key, from PKCS#12 (PFX) files.
package certloader

import (
	"crypto"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/vsixsign/vsixsign/lib/x509tools"
)

// Certificate is a signing identity: a leaf certificate, its private key,
// and the issuer chain.
type Certificate struct {
	PrivateKey   crypto.PrivateKey
	Leaf         *x509.Certificate
	Certificates []*x509.Certificate
}

// Signer returns the private key as a crypto.Signer.
func (s *Certificate) Signer() crypto.Signer {
	return s.PrivateKey.(crypto.Signer)
}

// Chain returns the certificate chain, leaf first.
func (s *Certificate) Chain() []*x509.Certificate {
	return s.Certificates
}

// Validate checks that the leaf certificate matches the private key.
func (s *Certificate) Validate() error {
	if s.Leaf == nil {
		return errors.New("no leaf certificate")
	}
	signer, ok := s.PrivateKey.(crypto.Signer)
	if !ok {
		return fmt.Errorf("unsupported private key type %T", s.PrivateKey)
	}
	if !x509tools.SameKey(signer.Public(), s.Leaf.PublicKey) {
		return errors.New("certificate does not match private key")
	}
	return nil
}
