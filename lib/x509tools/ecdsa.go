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

package x509tools

import (
	"encoding/asn1"
	"errors"
	"math/big"
)

// ECDSA signature as the raw R and S values
type EcdsaSignature struct {
	R, S *big.Int
}

// Unmarshal an ECDSA signature from an ASN.1 SEQUENCE
func UnmarshalEcdsaSignature(der []byte) (sig EcdsaSignature, err error) {
	der, err = asn1.Unmarshal(der, &sig)
	if err == nil && len(der) != 0 {
		err = errors.New("trailing bytes after ECDSA signature")
	}
	return
}

// Unpack an ECDSA signature from the concatenation of the padded R and S values
func UnpackEcdsaSignature(packed []byte) (sig EcdsaSignature, err error) {
	byteLen := len(packed) / 2
	if byteLen*2 != len(packed) {
		return sig, errors.New("ecdsa signature has invalid length")
	}
	sig.R = new(big.Int).SetBytes(packed[:byteLen])
	sig.S = new(big.Int).SetBytes(packed[byteLen:])
	return sig, nil
}

// Marshal an ECDSA signature as an ASN.1 SEQUENCE
func (sig EcdsaSignature) Marshal() []byte {
	der, err := asn1.Marshal(sig)
	if err != nil {
		panic(err)
	}
	return der
}

// Pack an ECDSA signature as the concatenation of the R and S values, each
// left-padded to the length of the longer of the two.
func (sig EcdsaSignature) Pack() []byte {
	byteLen := (sig.R.BitLen() + 7) / 8
	if sLen := (sig.S.BitLen() + 7) / 8; sLen > byteLen {
		byteLen = sLen
	}
	packed := make([]byte, 2*byteLen)
	sig.R.FillBytes(packed[:byteLen])
	sig.S.FillBytes(packed[byteLen:])
	return packed
}
