package xmldsig

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rsaTestKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

const relsDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="Rb" Type="urn:t2" Target="/b.xml" Extra="drop me"/>
  <Relationship Id="Ra" Type="urn:t1" Target="/a.xml" TargetMode="Internal"/>
  <Relationship Id="Rc" Type="urn:t3" Target="/c.xml"/>
</Relationships>`

func TestRelationshipsTransformAll(t *testing.T) {
	out, err := RelationshipsTransform([]byte(relsDoc), nil)
	require.NoError(t, err)
	// canonicalization re-sorts attributes by name after the transform's
	// own Id/Type/Target/TargetMode projection
	assert.Equal(t,
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
			`<Relationship Id="Ra" Target="/a.xml" TargetMode="Internal" Type="urn:t1"></Relationship>`+
			`<Relationship Id="Rb" Target="/b.xml" Type="urn:t2"></Relationship>`+
			`<Relationship Id="Rc" Target="/c.xml" Type="urn:t3"></Relationship>`+
			`</Relationships>`,
		string(out))
}

func TestRelationshipsTransformFiltered(t *testing.T) {
	out, err := RelationshipsTransform([]byte(relsDoc), []string{"Rc", "Ra"})
	require.NoError(t, err)
	assert.Equal(t,
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`+
			`<Relationship Id="Ra" Target="/a.xml" TargetMode="Internal" Type="urn:t1"></Relationship>`+
			`<Relationship Id="Rc" Target="/c.xml" Type="urn:t3"></Relationship>`+
			`</Relationships>`,
		string(out))
}

func TestRelationshipsTransformDeterministic(t *testing.T) {
	a, err := RelationshipsTransform([]byte(relsDoc), nil)
	require.NoError(t, err)
	b, err := RelationshipsTransform([]byte(relsDoc), nil)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRelationshipsTransformNotRels(t *testing.T) {
	_, err := RelationshipsTransform([]byte(`<Other/>`), nil)
	assert.Error(t, err)
}
