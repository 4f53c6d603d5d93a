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
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
)

// SameKey reports whether two public or private keys share the same public
// point or modulus.
func SameKey(a, b interface{}) bool {
	if privkey, ok := a.(crypto.Signer); ok {
		a = privkey.Public()
	}
	if privkey, ok := b.(crypto.Signer); ok {
		b = privkey.Public()
	}
	switch ak := a.(type) {
	case *rsa.PublicKey:
		bk, ok := b.(*rsa.PublicKey)
		return ok && ak.E == bk.E && ak.N.Cmp(bk.N) == 0
	case *ecdsa.PublicKey:
		bk, ok := b.(*ecdsa.PublicKey)
		return ok && ak.X.Cmp(bk.X) == 0 && ak.Y.Cmp(bk.Y) == 0
	}
	return false
}
