package xmldsig

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsixsign/vsixsign/lib/x509tools"
)

func TestRawSignatureRSA(t *testing.T) {
	key := rsaTestKey(t)
	digest := sha256.Sum256([]byte("payload"))
	sig, err := RawSignature(key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	require.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, digest[:], sig))
}

func TestRawSignatureECDSAPacked(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	digest := sha256.Sum256([]byte("payload"))
	sig, err := RawSignature(key, crypto.SHA256, digest[:])
	require.NoError(t, err)
	// packed r||s, not ASN.1
	require.Equal(t, 0, len(sig)%2)
	unpacked, err := x509tools.UnpackEcdsaSignature(sig)
	require.NoError(t, err)
	assert.True(t, ecdsa.Verify(&key.PublicKey, digest[:], unpacked.R, unpacked.S))

	uri, err := SignatureMethod(crypto.SHA256, key.Public())
	require.NoError(t, err)
	assert.Equal(t, NsXMLDsigMore+"ecdsa-sha256", uri)
}

func TestHashCanon(t *testing.T) {
	el := etree.NewElement("Root")
	el.CreateAttr("xmlns", "urn:x")
	el.CreateElement("Child").SetText("v")
	d1, err := HashCanon(el, crypto.SHA256)
	require.NoError(t, err)
	canon, err := SerializeCanonical(el)
	require.NoError(t, err)
	want := sha256.Sum256(canon)
	assert.Equal(t, want[:], d1)
}
