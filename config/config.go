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

// Package config holds the optional yaml configuration file supplying
// defaults for the command line.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Certificate     string `yaml:"certificate"`      // Path to a PKCS#12 file holding the signing identity
	TimestampURL    string `yaml:"timestamp"`        // RFC 3161 responder used to countersign
	FileDigest      string `yaml:"file-digest"`      // Digest for package parts (sha1, sha256, sha384, sha512)
	TimestampDigest string `yaml:"timestamp-digest"` // Digest for the timestamp imprint

	Path string `yaml:"-"` // Where the config was loaded from
}

// DefaultPath returns the conventional config location in the user's home
// directory, or "" if there is no home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vsixsign.yml")
}

// ReadFile loads a config file.
func ReadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Load reads the given path, or the default location when path is empty.
// A missing default file yields an empty config.
func Load(path string) (*Config, error) {
	if path != "" {
		return ReadFile(path)
	}
	path = DefaultPath()
	if path == "" {
		return new(Config), nil
	}
	cfg, err := ReadFile(path)
	if os.IsNotExist(err) {
		return new(Config), nil
	}
	return cfg, err
}
