package pkcs7

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalRejectsNonSignedData(t *testing.T) {
	der, err := asn1.Marshal(ContentInfoSignedData{ContentType: OidData})
	require.NoError(t, err)
	_, err = Unmarshal(der)
	assert.Error(t, err)
}

func TestContentInfoBytes(t *testing.T) {
	inner, err := asn1.Marshal(struct{ N int }{5})
	require.NoError(t, err)
	ci := ContentInfo{
		ContentType: OidTSTInfo,
		Value:       asn1.RawValue{Tag: asn1.TagOctetString, Bytes: inner},
	}
	blob, err := ci.Bytes()
	require.NoError(t, err)
	assert.Equal(t, inner, blob)

	_, err = ContentInfo{ContentType: OidTSTInfo}.Bytes()
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	alg := pkix.AlgorithmIdentifier{
		Algorithm:  asn1.ObjectIdentifier{2, 16, 840, 1, 101, 3, 4, 2, 1},
		Parameters: asn1.RawValue{Tag: 5},
	}
	psd := &ContentInfoSignedData{
		ContentType: OidSignedData,
		Content: SignedData{
			Version:                    3,
			DigestAlgorithmIdentifiers: []pkix.AlgorithmIdentifier{alg},
			ContentInfo: ContentInfo{
				ContentType: OidTSTInfo,
				Value:       asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: []byte{0x04, 0x02, 0x30, 0x00}},
			},
			SignerInfos: []SignerInfo{{
				Version: 1,
				IssuerAndSerialNumber: IssuerAndSerial{
					IssuerName:   asn1.RawValue{Tag: 16, IsCompound: true},
					SerialNumber: big.NewInt(7),
				},
				DigestAlgorithm:           alg,
				DigestEncryptionAlgorithm: alg,
				EncryptedDigest:           []byte{1, 2, 3},
			}},
		},
	}
	der, err := psd.Marshal()
	require.NoError(t, err)
	back, err := Unmarshal(der)
	require.NoError(t, err)
	assert.Equal(t, psd.ContentType, back.ContentType)
	require.Len(t, back.Content.SignerInfos, 1)
	assert.Equal(t, []byte{1, 2, 3}, back.Content.SignerInfos[0].EncryptedDigest)
	blob, err := back.Content.ContentInfo.Bytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x00}, blob)
}
