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

const (
	digSigDirURI  = "/package/services/digital-signature"
	OriginPartURI = digSigDirURI + "/origin.psdsor"
	xmlSigDirURI  = digSigDirURI + "/xml-signature"

	NsDigSig = "http://schemas.openxmlformats.org/package/2006/digital-signature"

	SigOriginRelType = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/origin"
	SigRelType       = "http://schemas.openxmlformats.org/package/2006/relationships/digital-signature/signature"

	OriginContentType    = "application/vnd.openxmlformats-package.digital-signature-origin"
	SignatureContentType = "application/vnd.openxmlformats-package.digital-signature-xmlsignature+xml"

	sigId           = "idSignature"
	packageObjectId = "idPackageObject"
	manifestId      = "idManifest"
	sigPropertiesId = "idSignatureProperties"
	sigTimeId       = "idSignatureTime"

	// ISO 8601 UTC with millisecond precision
	signingTimeFormat = "2006-01-02T15:04:05.000Z"
)

// content types registered by extension when signing
var signingContentTypes = map[string]string{
	"psdsor": OriginContentType,
	"psdsxs": SignatureContentType,
	"rels":   "application/vnd.openxmlformats-package.relationships+xml",
}
