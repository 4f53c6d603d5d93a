package pkcs9

import (
	"bytes"
	"context"
	"crypto"
	"crypto/sha256"
	"crypto/x509/pkix"
	"encoding/asn1"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsixsign/vsixsign/lib/pkcs7"
	"github.com/vsixsign/vsixsign/lib/x509tools"
)

// build a syntactically valid timestamp token answering the given request
func makeToken(t *testing.T, req *TimeStampReq, nonce *big.Int) *pkcs7.ContentInfoSignedData {
	t.Helper()
	if nonce == nil {
		nonce = req.Nonce
	}
	info := TSTInfo{
		Version:        1,
		Policy:         asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 601, 10, 3, 1},
		MessageImprint: req.MessageImprint,
		SerialNumber:   big.NewInt(42),
		GenTime: asn1.RawValue{
			Tag:   asn1.TagGeneralizedTime,
			Bytes: []byte("20260806120000Z"),
		},
		Nonce: nonce,
	}
	infoDER, err := asn1.Marshal(info)
	require.NoError(t, err)
	octets, err := asn1.Marshal(infoDER)
	require.NoError(t, err)
	digestAlg, _ := x509tools.PkixDigestAlgorithm(crypto.SHA256)
	return &pkcs7.ContentInfoSignedData{
		ContentType: pkcs7.OidSignedData,
		Content: pkcs7.SignedData{
			Version:                    3,
			DigestAlgorithmIdentifiers: []pkix.AlgorithmIdentifier{digestAlg},
			ContentInfo: pkcs7.ContentInfo{
				ContentType: pkcs7.OidTSTInfo,
				Value:       asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: octets},
			},
			SignerInfos: []pkcs7.SignerInfo{{
				Version: 1,
				IssuerAndSerialNumber: pkcs7.IssuerAndSerial{
					IssuerName:   asn1.RawValue{Tag: 16, IsCompound: true},
					SerialNumber: big.NewInt(1),
				},
				DigestAlgorithm:           digestAlg,
				DigestEncryptionAlgorithm: digestAlg,
				EncryptedDigest:           []byte{0xde, 0xad},
			}},
		},
	}
}

func testRequest(t *testing.T) *TimeStampReq {
	t.Helper()
	imprint := sha256.Sum256([]byte("signature value"))
	req, err := NewRequest(bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8}), crypto.SHA256, imprint[:])
	require.NoError(t, err)
	return req
}

func TestNewRequest(t *testing.T) {
	req := testRequest(t)
	assert.Equal(t, 1, req.Version)
	assert.True(t, req.CertReq)
	assert.Equal(t, new(big.Int).SetBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}), req.Nonce)
	assert.Equal(t, x509tools.OidDigestSHA256, req.MessageImprint.HashAlgorithm.Algorithm)
	assert.Len(t, req.MessageImprint.HashedMessage, 32)
}

func marshalResponse(t *testing.T, resp TimeStampResp) []byte {
	t.Helper()
	der, err := asn1.Marshal(resp)
	require.NoError(t, err)
	return der
}

func TestParseResponseGranted(t *testing.T) {
	req := testRequest(t)
	token := makeToken(t, req, nil)
	body := marshalResponse(t, TimeStampResp{
		Status:         PKIStatusInfo{Status: StatusGranted},
		TimeStampToken: *token,
	})
	psd, err := ParseResponse(req, body)
	require.NoError(t, err)
	info, err := UnpackTokenInfo(psd)
	require.NoError(t, err)
	assert.Equal(t, req.Nonce, info.Nonce)
	when, err := info.SigningTime()
	require.NoError(t, err)
	assert.Equal(t, 2026, when.Year())
}

func TestParseResponseDenied(t *testing.T) {
	req := testRequest(t)
	body := marshalResponse(t, TimeStampResp{
		Status: PKIStatusInfo{Status: StatusRejection},
	})
	_, err := ParseResponse(req, body)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestSanityCheckNonceMismatch(t *testing.T) {
	req := testRequest(t)
	token := makeToken(t, req, big.NewInt(99))
	err := SanityCheckToken(req, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonce")
}

func TestSanityCheckImprintMismatch(t *testing.T) {
	req := testRequest(t)
	bad := *req
	other := sha256.Sum256([]byte("something else"))
	bad.MessageImprint.HashedMessage = other[:]
	token := makeToken(t, &bad, req.Nonce)
	err := SanityCheckToken(req, token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "imprint")
}

func newTestTSA(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/timestamp-query" {
			http.Error(w, "bad content type", http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var req TimeStampReq
		if _, err := asn1.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		token := makeToken(t, &req, nil)
		resp := TimeStampResp{
			Status:         PKIStatusInfo{Status: StatusGranted},
			TimeStampToken: *token,
		}
		der, err := asn1.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/timestamp-reply")
		w.Write(der)
	}))
}

func TestClientRequest(t *testing.T) {
	srv := newTestTSA(t)
	defer srv.Close()
	imprint := sha256.Sum256([]byte("signature value"))
	client := TimestampClient{URL: srv.URL}
	token, err := client.Request(context.Background(), crypto.SHA256, imprint[:])
	require.NoError(t, err)
	info, err := UnpackTokenInfo(token)
	require.NoError(t, err)
	assert.Equal(t, imprint[:], info.MessageImprint.HashedMessage)
}

func TestClientRejectsWrongContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("not a token"))
	}))
	defer srv.Close()
	imprint := sha256.Sum256([]byte("x"))
	client := TimestampClient{URL: srv.URL}
	_, err := client.Request(context.Background(), crypto.SHA256, imprint[:])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content type")
}

func TestClientRejectsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	imprint := sha256.Sum256([]byte("x"))
	client := TimestampClient{URL: srv.URL}
	_, err := client.Request(context.Background(), crypto.SHA256, imprint[:])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP")
}
