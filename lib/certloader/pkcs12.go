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

package certloader

import (
	"crypto/x509"
	"errors"
	"os"

	"software.sslmate.com/src/go-pkcs12"

	"github.com/vsixsign/vsixsign/lib/passprompt"
)

// ParsePKCS12 decodes a PFX blob, prompting for the password until it
// decodes or the prompt gives up.
func ParsePKCS12(blob []byte, prompt passprompt.PasswordGetter) (*Certificate, error) {
	var triedEmpty bool
	for {
		password, err := prompt.GetPasswd("Password for PKCS#12: ")
		if err != nil {
			return nil, err
		} else if password == "" {
			if triedEmpty {
				return nil, errors.New("aborted")
			}
			triedEmpty = true
		}
		priv, leaf, chain, err := pkcs12.DecodeChain(blob, password)
		if errors.Is(err, pkcs12.ErrIncorrectPassword) {
			continue
		} else if err != nil {
			return nil, err
		}
		certs := append([]*x509.Certificate{leaf}, chain...)
		cert := &Certificate{
			PrivateKey:   priv,
			Leaf:         leaf,
			Certificates: certs,
		}
		if err := cert.Validate(); err != nil {
			return nil, err
		}
		return cert, nil
	}
}

// LoadPKCS12File reads and decodes a PFX file.
func LoadPKCS12File(path string, prompt passprompt.PasswordGetter) (*Certificate, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePKCS12(blob, prompt)
}
