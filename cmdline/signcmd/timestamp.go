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

package signcmd

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsixsign/vsixsign/cmdline/shared"
	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opcsign"
	"github.com/vsixsign/vsixsign/lib/opczip"
	"github.com/vsixsign/vsixsign/lib/pkcs9"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

var (
	argTsURL    string
	argTsDigest string
)

var timestampCmd = &cobra.Command{
	Use:   "timestamp <vsix>",
	Short: "Countersign an existing signature with an RFC 3161 timestamp",
	Args:  cobra.ExactArgs(1),
	RunE:  runTimestamp,
}

func init() {
	shared.RootCmd.AddCommand(timestampCmd)
	timestampCmd.Flags().StringVarP(&argTsURL, "url", "u", "", "RFC 3161 timestamp server URL")
	timestampCmd.Flags().StringVarP(&argTsDigest, "digest", "d", "sha256", "Digest algorithm for the timestamp imprint")
}

func runTimestamp(cmd *cobra.Command, args []string) error {
	if argTsURL == "" {
		cfg, err := shared.CurrentConfig()
		if err != nil {
			return err
		}
		argTsURL = cfg.TimestampURL
	}
	if argTsURL == "" {
		return errors.New("--url is required")
	}
	hash, err := xmldsig.HashByName(argTsDigest)
	if err != nil {
		return err
	}
	pkg, err := opc.Open(args[0], opczip.ModeReadWrite)
	if err != nil {
		return err
	}
	defer pkg.Close()
	sigs, err := opcsign.Signatures(pkg)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		return errors.New("package is not signed")
	}
	client := &pkcs9.TimestampClient{URL: argTsURL, Timeout: time.Minute}
	for _, sig := range sigs {
		if err := sig.Timestamp(cmd.Context(), client, hash); err != nil {
			return err
		}
		log.Info().Str("signature", sig.PartURI()).Str("url", argTsURL).Msg("timestamped signature")
	}
	return pkg.Flush()
}
