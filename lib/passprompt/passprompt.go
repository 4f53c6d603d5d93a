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

package passprompt

import (
	"errors"
	"os"

	"github.com/howeyc/gopass"
)

type PasswordGetter interface {
	// GetPasswd returns a password or an error. An empty string with no
	// error indicates the user declined to enter one.
	GetPasswd(prompt string) (string, error)
}

// PasswordPrompt reads a password from the controlling terminal.
type PasswordPrompt struct{}

func (PasswordPrompt) GetPasswd(prompt string) (string, error) {
	passwd, err := gopass.GetPasswdPrompt(prompt, false, os.Stdin, os.Stderr)
	if err == gopass.ErrInterrupted {
		return "", errors.New("aborted")
	} else if err != nil {
		return "", err
	}
	return string(passwd), nil
}

// Static returns the same password every time without prompting.
type Static struct {
	Password string
}

func (s Static) GetPasswd(string) (string, error) {
	return s.Password, nil
}
