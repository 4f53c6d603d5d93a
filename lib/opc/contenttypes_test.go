package opc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const typesDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Override PartName="/extension.vsixmanifest" ContentType="text/xml"/>
  <Default Extension="dll" ContentType="application/octet-stream"/>
</Types>`

func TestContentTypesResolve(t *testing.T) {
	c, err := ParseContentTypes([]byte(typesDoc))
	require.NoError(t, err)

	ctype, err := c.Resolve("/extension.vsixmanifest")
	require.NoError(t, err)
	assert.Equal(t, "text/xml", ctype)

	// default lookup is by lowercased extension
	ctype, err = c.Resolve("/bin/Some.DLL")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", ctype)

	_, err = c.Resolve("/no/such.thing")
	var unknown UnknownContentTypeError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "/no/such.thing", unknown.Part)
}

func TestContentTypesRoundTrip(t *testing.T) {
	c, err := ParseContentTypes([]byte(typesDoc))
	require.NoError(t, err)
	assert.False(t, c.IsDirty())
	blob, err := c.Marshal()
	require.NoError(t, err)
	// entry order survives the round trip
	c2, err := ParseContentTypes(blob)
	require.NoError(t, err)
	blob2, err := c2.Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(blob), string(blob2))
}

func TestContentTypesAdd(t *testing.T) {
	c := NewContentTypes()
	c.AddDefault("psdsxs", "application/vnd.openxmlformats-package.digital-signature-xmlsignature+xml")
	assert.True(t, c.IsDirty())
	ctype, err := c.Resolve("/sig/x.psdsxs")
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-package.digital-signature-xmlsignature+xml", ctype)

	c.AddOverride("/special.bin", "application/x-thing")
	ctype, err = c.Resolve("/special.bin")
	require.NoError(t, err)
	assert.Equal(t, "application/x-thing", ctype)

	c.RemoveOverride("/special.bin")
	_, err = c.Resolve("/special.bin")
	assert.Error(t, err)
}

func TestContentTypesMalformed(t *testing.T) {
	_, err := ParseContentTypes([]byte(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="x"/></Types>`))
	var malformed MalformedPackageError
	require.ErrorAs(t, err, &malformed)

	_, err = ParseContentTypes([]byte(`<Types xmlns="urn:wrong"/>`))
	assert.Error(t, err)
}
