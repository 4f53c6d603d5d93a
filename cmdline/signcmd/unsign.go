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
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsixsign/vsixsign/cmdline/shared"
	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opcsign"
	"github.com/vsixsign/vsixsign/lib/opczip"
)

var unsignCmd = &cobra.Command{
	Use:   "unsign <vsix>",
	Short: "Remove all signatures from a VSIX package",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnsign,
}

func init() {
	shared.RootCmd.AddCommand(unsignCmd)
}

func runUnsign(cmd *cobra.Command, args []string) error {
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
		log.Info().Str("path", args[0]).Msg("package is not signed")
		return nil
	}
	for _, sig := range sigs {
		part := sig.PartURI()
		if err := sig.Remove(); err != nil {
			return err
		}
		log.Info().Str("path", args[0]).Str("signature", part).Msg("removed signature")
	}
	return pkg.Flush()
}
