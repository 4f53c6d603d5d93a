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

package pkcs9

import (
	"bytes"
	"context"
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"encoding/asn1"
	"errors"
	"fmt"
	"io"
	"math/big"
	"mime"
	"net/http"
	"time"

	"github.com/vsixsign/vsixsign/lib/pkcs7"
	"github.com/vsixsign/vsixsign/lib/x509tools"
)

const (
	queryContentType = "application/timestamp-query"
	replyContentType = "application/timestamp-reply"
)

// RFC 3161 HTTP client
type TimestampClient struct {
	URL       string
	Timeout   time.Duration
	UserAgent string
	// HTTPClient overrides the transport, mainly for tests. When nil a
	// default client honoring Timeout is used.
	HTTPClient *http.Client
	// Rand supplies the request nonce, defaulting to crypto/rand.
	Rand io.Reader
}

// Request a timestamp token over the given digest and return the
// sanity-checked token.
func (t TimestampClient) Request(ctx context.Context, hash crypto.Hash, hashValue []byte) (*pkcs7.ContentInfoSignedData, error) {
	source := t.Rand
	if source == nil {
		source = rand.Reader
	}
	msg, err := NewRequest(source, hash, hashValue)
	if err != nil {
		return nil, err
	}
	reqbytes, err := asn1.Marshal(*msg)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.URL, bytes.NewReader(reqbytes))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", queryContentType)
	if t.UserAgent != "" {
		req.Header.Set("User-Agent", t.UserAgent)
	}
	body, err := t.do(req)
	if err != nil {
		return nil, err
	}
	return ParseResponse(msg, body)
}

func (t TimestampClient) do(req *http.Request) ([]byte, error) {
	client := t.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: t.Timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: HTTP %s\n%s", t.URL, resp.Status, body)
	}
	ctype, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if ctype != replyContentType {
		return nil, fmt.Errorf("%s: unexpected response content type %q", t.URL, ctype)
	}
	return body, nil
}

// NewRequest creates a timestamp request over the given digest: version 1,
// a random 64-bit nonce, certificates requested, no policy.
func NewRequest(source io.Reader, hash crypto.Hash, hashValue []byte) (*TimeStampReq, error) {
	alg, ok := x509tools.PkixDigestAlgorithm(hash)
	if !ok {
		return nil, errors.New("unknown digest algorithm")
	}
	nonce, err := makeNonce(source)
	if err != nil {
		return nil, err
	}
	return &TimeStampReq{
		Version: 1,
		MessageImprint: MessageImprint{
			HashAlgorithm: alg,
			HashedMessage: hashValue,
		},
		Nonce:   nonce,
		CertReq: true,
	}, nil
}

func makeNonce(source io.Reader) (*big.Int, error) {
	blob := make([]byte, 8)
	if _, err := io.ReadFull(source, blob); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(blob), nil
}

// ParseResponse decodes a TimeStampResp and sanity-checks the token against
// the original request.
func ParseResponse(msg *TimeStampReq, body []byte) (*pkcs7.ContentInfoSignedData, error) {
	respmsg := new(TimeStampResp)
	if rest, err := asn1.Unmarshal(body, respmsg); err != nil {
		return nil, fmt.Errorf("pkcs9: unmarshalling response: %w", err)
	} else if len(rest) != 0 {
		return nil, errors.New("pkcs9: trailing bytes in response")
	} else if respmsg.Status.Status > StatusGrantedWithMods {
		return nil, fmt.Errorf("pkcs9: request denied: status=%d failureInfo=%x", respmsg.Status.Status, respmsg.Status.FailInfo.Bytes)
	}
	if err := SanityCheckToken(msg, &respmsg.TimeStampToken); err != nil {
		return nil, fmt.Errorf("pkcs9: token sanity check failed: %w", err)
	}
	return &respmsg.TimeStampToken, nil
}

// SanityCheckToken verifies that a token's imprint, hash algorithm and
// nonce match the request that produced it.
func SanityCheckToken(req *TimeStampReq, psd *pkcs7.ContentInfoSignedData) error {
	if !psd.ContentType.Equal(pkcs7.OidSignedData) {
		return errors.New("token is not signedData")
	}
	if len(psd.Content.SignerInfos) != 1 {
		return errors.New("token should have exactly one SignerInfo")
	}
	info, err := UnpackTokenInfo(psd)
	if err != nil {
		return err
	}
	if !info.MessageImprint.HashAlgorithm.Algorithm.Equal(req.MessageImprint.HashAlgorithm.Algorithm) {
		return errors.New("message imprint algorithm mismatch")
	}
	if !hmac.Equal(info.MessageImprint.HashedMessage, req.MessageImprint.HashedMessage) {
		return errors.New("message imprint mismatch")
	}
	if info.Nonce == nil || req.Nonce.Cmp(info.Nonce) != 0 {
		return errors.New("request nonce mismatch")
	}
	return nil
}
