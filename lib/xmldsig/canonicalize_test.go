package xmldsig

import (
	"crypto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeStripsProlog(t *testing.T) {
	in := []byte("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\r\n" +
		"<!-- leading comment -->\r\n" +
		"<Root a=\"1\"><!-- inner --><Child>x</Child></Root>")
	out, err := Canonicalize(in)
	require.NoError(t, err)
	assert.Equal(t, `<Root a="1"><Child>x</Child></Root>`, string(out))
}

func TestCanonicalizeAttributeOrder(t *testing.T) {
	in := []byte(`<Root zebra="1" alpha="2" xmlns:b="urn:b" xmlns="urn:d" b:attr="3"/>`)
	out, err := Canonicalize(in)
	require.NoError(t, err)
	// default namespace first, then prefixed declarations, then attributes
	assert.Equal(t, `<Root xmlns="urn:d" xmlns:b="urn:b" alpha="2" zebra="1" b:attr="3"></Root>`, string(out))
}

func TestCanonicalizeIdempotent(t *testing.T) {
	in := []byte(`<Root xmlns="urn:x" q="a&#xA;b"><A>1</A><B>2</B></Root>`)
	once, err := Canonicalize(in)
	require.NoError(t, err)
	twice, err := Canonicalize(once)
	require.NoError(t, err)
	assert.Equal(t, string(once), string(twice))
}

func TestCanonicalizeUnusedNamespace(t *testing.T) {
	in := []byte(`<Root xmlns:u="urn:u"><u:Child/></Root>`)
	out, err := Canonicalize(in)
	require.NoError(t, err)
	// the declaration is pushed down to the element that uses it
	assert.Equal(t, `<Root><u:Child xmlns:u="urn:u"></u:Child></Root>`, string(out))
}

func TestCanonicalizeMalformed(t *testing.T) {
	_, err := Canonicalize([]byte(`<Root><unclosed></Root>`))
	assert.Error(t, err)
}

func TestHashByName(t *testing.T) {
	hash, err := HashByName("sha256")
	require.NoError(t, err)
	assert.Equal(t, crypto.SHA256, hash)
	_, err = HashByName("md5")
	assert.Error(t, err)
}

func TestSignatureMethodURIs(t *testing.T) {
	rsaKey := rsaTestKey(t)
	tests := []struct {
		hash crypto.Hash
		uri  string
	}{
		{crypto.SHA1, "http://www.w3.org/2000/09/xmldsig#rsa-sha1"},
		{crypto.SHA256, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha256"},
		{crypto.SHA384, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha384"},
		{crypto.SHA512, "http://www.w3.org/2001/04/xmldsig-more#rsa-sha512"},
	}
	for _, tc := range tests {
		uri, err := SignatureMethod(tc.hash, rsaKey.Public())
		require.NoError(t, err)
		assert.Equal(t, tc.uri, uri)
	}
}
