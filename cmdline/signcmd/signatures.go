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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsixsign/vsixsign/cmdline/shared"
	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opcsign"
	"github.com/vsixsign/vsixsign/lib/opczip"
)

var signaturesCmd = &cobra.Command{
	Use:   "signatures <vsix>",
	Short: "List the signatures inside a VSIX package",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatures,
}

func init() {
	shared.RootCmd.AddCommand(signaturesCmd)
}

func runSignatures(cmd *cobra.Command, args []string) error {
	pkg, err := opc.Open(args[0], opczip.ModeRead)
	if err != nil {
		return err
	}
	defer pkg.Close()
	sigs, err := opcsign.Signatures(pkg)
	if err != nil {
		return err
	}
	if len(sigs) == 0 {
		fmt.Fprintln(os.Stdout, "no signatures")
		return nil
	}
	for _, sig := range sigs {
		parsed, err := sig.Parse()
		if err != nil {
			return err
		}
		line := fmt.Sprintf("%s  %s", sig.PartURI(), parsed.SignatureMethod.URI())
		if certs, err := sig.Certificates(); err == nil && len(certs) > 0 {
			line += "  " + certs[0].Subject.String()
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
