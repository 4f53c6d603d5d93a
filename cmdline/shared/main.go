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

// Package shared holds the root command and the pieces every subcommand
// needs: configuration, logging, and exit-code policy.
package shared

import (
	"errors"
	"io/fs"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsixsign/vsixsign/config"
	"github.com/vsixsign/vsixsign/lib/opcsign"
)

var (
	ArgConfig  string
	argVerbose bool
)

var RootCmd = &cobra.Command{
	Use:           "vsixsign",
	Short:         "Sign, timestamp and unsign VSIX extension packages",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&ArgConfig, "config", "c", "", "Configuration file")
	RootCmd.PersistentFlags().BoolVarP(&argVerbose, "verbose", "v", false, "Enable debug logging")
}

func setupLogging() {
	level := zerolog.InfoLevel
	if argVerbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

// CurrentConfig loads the configured or default config file.
func CurrentConfig() (*config.Config, error) {
	return config.Load(ArgConfig)
}

// exit codes: 0 success, 1 validation failure, 2 crypto or I/O failure
func exitCode(err error) int {
	var cryptoErr opcsign.CryptoError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &cryptoErr),
		errors.As(err, &pathErr),
		errors.Is(err, fs.ErrNotExist):
		return 2
	}
	return 1
}

func Main() {
	if err := RootCmd.Execute(); err != nil {
		log.Error().Msg(err.Error())
		os.Exit(exitCode(err))
	}
}
