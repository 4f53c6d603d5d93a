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

package opc

import (
	"errors"
	"fmt"
)

// ErrInvalidOperation is returned when a handle is used after the thing it
// refers to was removed or finalized.
var ErrInvalidOperation = errors.New("operation on a removed or finalized handle")

// MalformedPackageError indicates that package metadata failed to parse or
// is missing required attributes.
type MalformedPackageError struct {
	Part   string
	Reason string
}

func (e MalformedPackageError) Error() string {
	return fmt.Sprintf("malformed package: %s: %s", e.Part, e.Reason)
}

// UnknownContentTypeError indicates that a part has no content-type
// resolution in the registry.
type UnknownContentTypeError struct {
	Part string
}

func (e UnknownContentTypeError) Error() string {
	return fmt.Sprintf("no content type for part: %s", e.Part)
}
