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

package opcsign

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"

	"github.com/beevik/etree"

	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opczip"
	"github.com/vsixsign/vsixsign/lib/pkcs9"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

// Timestamp countersigns the signature with an RFC 3161 token over its
// SignatureValue and embeds it as an unsigned property. The rest of the
// signature part, SignedInfo and SignatureValue included, is left
// byte-identical.
func (s *Signature) Timestamp(ctx context.Context, client *pkcs9.TimestampClient, hash crypto.Hash) error {
	if s.partURI == "" {
		return opc.ErrInvalidOperation
	}
	if s.pkg.ReadOnly() {
		return opczip.ErrReadOnly
	}
	parsed, err := s.Parse()
	if err != nil {
		return err
	}
	sigValue, err := base64.StdEncoding.DecodeString(parsed.SignatureValue)
	if err != nil {
		return TimestampError{Reason: "decoding SignatureValue", Err: err}
	}
	d := hash.New()
	d.Write(sigValue)
	token, err := client.Request(ctx, hash, d.Sum(nil))
	if err != nil {
		return TimestampError{Reason: "requesting token", Err: err}
	}
	der, err := token.Marshal()
	if err != nil {
		return TimestampError{Reason: "encoding token", Err: err}
	}
	target := parsed.Id
	if target == "" {
		target = sigId
	}
	objXML, err := timestampObject(target, der)
	if err != nil {
		return err
	}
	blob, err := s.pkg.Read(s.partURI)
	if err != nil {
		return err
	}
	// splice the new Object in without reserializing the signed bytes
	end := bytes.LastIndex(blob, []byte("</Signature>"))
	if end < 0 {
		return opc.MalformedPackageError{Part: s.partURI, Reason: "no Signature end tag"}
	}
	var out bytes.Buffer
	out.Write(blob[:end])
	out.Write(objXML)
	out.Write(blob[end:])
	if err := s.pkg.Write(s.partURI, out.Bytes()); err != nil {
		return err
	}
	s.parsed = nil
	return nil
}

func timestampObject(target string, token []byte) ([]byte, error) {
	object := etree.NewElement("Object")
	qp := object.CreateElement("xd:QualifyingProperties")
	qp.CreateAttr("xmlns:xd", xmldsig.NsXAdES)
	qp.CreateAttr("Target", "#"+target)
	ts := qp.CreateElement("xd:UnsignedProperties").
		CreateElement("xd:UnsignedSignatureProperties").
		CreateElement("xd:SignatureTimeStamp")
	ts.CreateAttr("Id", "idSignatureTimestamp")
	ts.CreateElement("xd:EncapsulatedTimeStamp").
		SetText(base64.StdEncoding.EncodeToString(token))
	doc := etree.NewDocument()
	doc.SetRoot(object)
	return doc.WriteToBytes()
}
