package opc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relsDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="R1" Type="urn:a" Target="/a.xml"/>
  <Relationship Id="R2" Type="urn:b" Target="/b.xml" TargetMode="Internal"/>
</Relationships>`

func TestRelsPartURI(t *testing.T) {
	assert.Equal(t, "/_rels/.rels", RelsPartURI("/"))
	assert.Equal(t, "/_rels/doc.xml.rels", RelsPartURI("/doc.xml"))
	assert.Equal(t, "/a/b/_rels/c.bin.rels", RelsPartURI("/a/b/c.bin"))
}

func TestRelsSource(t *testing.T) {
	assert.Equal(t, "/", RelsSource("/_rels/.rels"))
	assert.Equal(t, "/doc.xml", RelsSource("/_rels/doc.xml.rels"))
	assert.Equal(t, "/a/b/c.bin", RelsSource("/a/b/_rels/c.bin.rels"))
}

func TestIsRelsPart(t *testing.T) {
	assert.True(t, IsRelsPart("/_rels/.rels"))
	assert.True(t, IsRelsPart("/pkg/_rels/doc.xml.rels"))
	assert.False(t, IsRelsPart("/doc.xml"))
	assert.False(t, IsRelsPart("/rels/doc.rels"))
}

func TestRelationshipsParse(t *testing.T) {
	r, err := ParseRelationships("/", []byte(relsDoc))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())
	rel := r.ByID("R2")
	require.NotNil(t, rel)
	assert.Equal(t, "urn:b", rel.Type)
	assert.Equal(t, "/b.xml", rel.Target)
	assert.Equal(t, "Internal", rel.TargetMode)
	assert.Len(t, r.ByType("urn:a"), 1)
	assert.Empty(t, r.ByType("urn:none"))
}

func TestRelationshipsParseMalformed(t *testing.T) {
	_, err := ParseRelationships("/", []byte(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="R1"/></Relationships>`))
	var malformed MalformedPackageError
	require.ErrorAs(t, err, &malformed)
}

func TestRelationshipsAdd(t *testing.T) {
	r := NewRelationships("/")
	source := bytes.NewReader([]byte{0, 0, 0, 1})
	id, err := r.Add(source, "urn:a", "/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "R00000001", id)
	assert.True(t, r.IsDirty())
}

func TestRelationshipsAddCollision(t *testing.T) {
	r := NewRelationships("/")
	// the same 32-bit value twice, then a fresh one
	source := bytes.NewReader([]byte{
		0xde, 0xad, 0xbe, 0xef,
		0xde, 0xad, 0xbe, 0xef,
		0, 0, 0, 2,
	})
	id, err := r.Add(source, "urn:a", "/a.xml")
	require.NoError(t, err)
	assert.Equal(t, "RDEADBEEF", id)
	id, err = r.Add(source, "urn:b", "/b.xml")
	require.NoError(t, err)
	assert.Equal(t, "R00000002", id)
}

func TestRelationshipsRemove(t *testing.T) {
	r, err := ParseRelationships("/", []byte(relsDoc))
	require.NoError(t, err)
	require.NoError(t, r.Remove("R1"))
	assert.Nil(t, r.ByID("R1"))
	assert.Equal(t, 1, r.Len())
	assert.Error(t, r.Remove("R1"))
}

func TestRelationshipsRoundTrip(t *testing.T) {
	r, err := ParseRelationships("/", []byte(relsDoc))
	require.NoError(t, err)
	blob, err := r.Marshal()
	require.NoError(t, err)
	r2, err := ParseRelationships("/", blob)
	require.NoError(t, err)
	assert.Equal(t, r.All(), r2.All())
}
