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

// Package opcsign produces and manages detached XML-DSig signatures inside
// OPC packages: building the manifest and SignedInfo over the package
// parts, embedding the signature part with its origin and relationships,
// and countersigning with RFC 3161 timestamps.
package opcsign

import (
	"crypto"
	"encoding/base64"
	"fmt"
	"path"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/vsixsign/vsixsign/lib/certloader"
	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opczip"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

// Builder accumulates reference presets and signs a package.
type Builder struct {
	pkg     *opc.Package
	presets []Preset

	// Now is the clock for the SigningTime property, injectable for tests.
	Now func() time.Time
	// NewGUID names the signature part, injectable for tests.
	NewGUID func() string
}

func NewBuilder(pkg *opc.Package) *Builder {
	return &Builder{
		pkg:     pkg,
		Now:     time.Now,
		NewGUID: func() string { return uuid.New().String() },
	}
}

// EnqueuePreset adds a reference preset to the builder.
func (b *Builder) EnqueuePreset(p Preset) {
	b.presets = append(b.presets, p)
}

// Sign produces a signature over the package parts and stores it, along
// with the signature-origin part and the relationships and content types
// that register it. Existing signatures are replaced, so a signed package
// always holds exactly one signature. Nothing is persisted until the
// package is flushed, so failures leave the archive untouched.
func (b *Builder) Sign(hash crypto.Hash, cert *certloader.Certificate) (*Signature, error) {
	if b.pkg.ReadOnly() {
		return nil, opczip.ErrReadOnly
	}
	if len(b.presets) == 0 {
		return nil, ErrNoReferences
	}
	if err := cert.Validate(); err != nil {
		return nil, CryptoError{Op: "loading identity", Err: err}
	}
	sigMethod, err := xmldsig.SignatureMethod(hash, cert.Signer().Public())
	if err != nil {
		return nil, CryptoError{Op: "selecting algorithm", Err: err}
	}
	hashURI := xmldsig.HashUris[hash]
	if hashURI == "" {
		return nil, CryptoError{Op: "selecting algorithm", Err: fmt.Errorf("unsupported digest %s", hash)}
	}
	// replace any existing signature
	existing, err := Signatures(b.pkg)
	if err != nil {
		return nil, err
	}
	for _, sig := range existing {
		if err := sig.Remove(); err != nil {
			return nil, err
		}
	}
	sigURI, err := b.embedScaffolding()
	if err != nil {
		return nil, err
	}
	// materialize relationships and content types so digests cover the
	// bytes that will land in the archive
	if err := b.pkg.Sync(); err != nil {
		return nil, err
	}
	var refs []PartReference
	for _, preset := range b.presets {
		pr, err := preset.References(b.pkg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, pr...)
	}
	if len(refs) == 0 {
		return nil, ErrNoReferences
	}
	blob, err := b.buildSignature(refs, hash, hashURI, sigMethod, cert)
	if err != nil {
		return nil, err
	}
	if err := b.pkg.Write(sigURI, blob); err != nil {
		return nil, err
	}
	return &Signature{pkg: b.pkg, partURI: sigURI}, nil
}

// embedScaffolding ensures the origin part and relationship plumbing exist
// and allocates the new signature part URI.
func (b *Builder) embedScaffolding() (string, error) {
	for ext, ctype := range signingContentTypes {
		b.pkg.ContentTypes.AddDefault(ext, ctype)
	}
	if !b.pkg.HasPart(OriginPartURI) {
		if err := b.pkg.Write(OriginPartURI, nil); err != nil {
			return "", err
		}
	}
	rootRels, err := b.pkg.Rels("/")
	if err != nil {
		return "", err
	}
	if len(rootRels.ByType(SigOriginRelType)) == 0 {
		if _, err := rootRels.Add(b.pkg.Rand, SigOriginRelType, OriginPartURI); err != nil {
			return "", err
		}
	}
	sigURI := path.Join(xmlSigDirURI, b.NewGUID()+".psdsxs")
	originRels, err := b.pkg.Rels(OriginPartURI)
	if err != nil {
		return "", err
	}
	if _, err := originRels.Add(b.pkg.Rand, SigRelType, sigURI); err != nil {
		return "", err
	}
	return sigURI, nil
}

func (b *Builder) buildSignature(refs []PartReference, hash crypto.Hash, hashURI, sigMethod string, cert *certloader.Certificate) ([]byte, error) {
	signature := etree.NewElement("Signature")
	signature.CreateAttr("xmlns", xmldsig.NsXMLDsig)
	signature.CreateAttr("Id", sigId)

	object := etree.NewElement("Object")
	object.CreateAttr("Id", packageObjectId)
	manifest := object.CreateElement("Manifest")
	manifest.CreateAttr("Id", manifestId)
	d := digester{pkg: b.pkg, hash: hash}
	for _, ref := range refs {
		digest, err := d.digest(ref)
		if err != nil {
			return nil, err
		}
		el := manifest.CreateElement("Reference")
		el.CreateAttr("URI", ref.URI+"?ContentType="+ref.ContentType)
		if len(ref.Transforms) > 0 {
			transforms := el.CreateElement("Transforms")
			for _, tf := range ref.Transforms {
				tfEl := transforms.CreateElement("Transform")
				tfEl.CreateAttr("Algorithm", tf.Algorithm)
				for _, id := range tf.SourceIds {
					rr := tfEl.CreateElement("mdssi:RelationshipReference")
					rr.CreateAttr("xmlns:mdssi", NsDigSig)
					rr.CreateAttr("SourceId", id)
				}
			}
		}
		el.CreateElement("DigestMethod").CreateAttr("Algorithm", hashURI)
		el.CreateElement("DigestValue").SetText(base64.StdEncoding.EncodeToString(digest))
	}
	props := object.CreateElement("SignatureProperties")
	props.CreateAttr("Id", sigPropertiesId)
	prop := props.CreateElement("SignatureProperty")
	prop.CreateAttr("Id", sigTimeId)
	prop.CreateAttr("Target", "#"+sigId)
	sigTime := prop.CreateElement("SigningTime")
	sigTime.CreateAttr("xmlns", NsDigSig)
	sigTime.SetText(b.Now().UTC().Format(signingTimeFormat))

	// attach the object before canonicalizing so the signature namespace
	// is pushed down properly
	signature.AddChild(object)
	manifestDigest, err := xmldsig.HashCanon(manifest, hash)
	if err != nil {
		return nil, err
	}
	propsDigest, err := xmldsig.HashCanon(props, hash)
	if err != nil {
		return nil, err
	}

	signedinfo := signature.CreateElement("SignedInfo")
	signedinfo.CreateElement("CanonicalizationMethod").CreateAttr("Algorithm", xmldsig.AlgC14N)
	signedinfo.CreateElement("SignatureMethod").CreateAttr("Algorithm", sigMethod)
	addSignedInfoRef(signedinfo, "#"+manifestId, xmldsig.NsXMLDsig+"Manifest", hashURI, manifestDigest)
	addSignedInfoRef(signedinfo, "#"+sigPropertiesId, xmldsig.NsXMLDsig+"SignatureProperties", hashURI, propsDigest)

	siDigest, err := xmldsig.HashCanon(signedinfo, hash)
	if err != nil {
		return nil, err
	}
	rawSig, err := xmldsig.RawSignature(cert.Signer(), hash, siDigest)
	if err != nil {
		return nil, CryptoError{Op: "signing", Err: err}
	}
	signature.CreateElement("SignatureValue").SetText(base64.StdEncoding.EncodeToString(rawSig))
	keyinfo := signature.CreateElement("KeyInfo")
	x509data := keyinfo.CreateElement("X509Data")
	for _, c := range cert.Chain() {
		x509data.CreateElement("X509Certificate").SetText(base64.StdEncoding.EncodeToString(c.Raw))
	}
	// SignedInfo, SignatureValue and KeyInfo precede the package object
	signature.RemoveChild(object)
	signature.AddChild(object)

	doc := etree.NewDocument()
	doc.SetRoot(signature)
	return doc.WriteToBytes()
}

func addSignedInfoRef(signedinfo *etree.Element, uri, refType, hashURI string, digest []byte) {
	ref := signedinfo.CreateElement("Reference")
	ref.CreateAttr("URI", uri)
	ref.CreateAttr("Type", refType)
	ref.CreateElement("Transforms").CreateElement("Transform").CreateAttr("Algorithm", xmldsig.AlgC14N)
	ref.CreateElement("DigestMethod").CreateAttr("Algorithm", hashURI)
	ref.CreateElement("DigestValue").SetText(base64.StdEncoding.EncodeToString(digest))
}
