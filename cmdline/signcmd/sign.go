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
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vsixsign/vsixsign/cmdline/shared"
	"github.com/vsixsign/vsixsign/lib/certloader"
	"github.com/vsixsign/vsixsign/lib/opc"
	"github.com/vsixsign/vsixsign/lib/opcsign"
	"github.com/vsixsign/vsixsign/lib/opczip"
	"github.com/vsixsign/vsixsign/lib/passprompt"
	"github.com/vsixsign/vsixsign/lib/pkcs9"
	"github.com/vsixsign/vsixsign/lib/xmldsig"
)

var (
	argCertificate     string
	argPassword        string
	argFileDigest      string
	argTimestampURL    string
	argTimestampDigest string
)

var signCmd = &cobra.Command{
	Use:   "sign <vsix>",
	Short: "Sign a VSIX package, replacing any existing signature",
	Args:  cobra.ExactArgs(1),
	RunE:  runSign,
}

func init() {
	shared.RootCmd.AddCommand(signCmd)
	signCmd.Flags().StringVarP(&argCertificate, "certificate", "f", "", "PKCS#12 file with certificate and private key")
	signCmd.Flags().StringVarP(&argPassword, "password", "p", "", "Password for the PKCS#12 file")
	signCmd.Flags().StringVarP(&argFileDigest, "file-digest", "d", "", "Digest algorithm for package parts (sha1, sha256, sha384, sha512)")
	signCmd.Flags().StringVarP(&argTimestampURL, "timestamp", "t", "", "RFC 3161 timestamp server URL")
	signCmd.Flags().StringVar(&argTimestampDigest, "timestamp-digest", "", "Digest algorithm for the timestamp (defaults to --file-digest)")
}

func loadIdentity() (*certloader.Certificate, error) {
	if argCertificate == "" {
		return nil, errors.New("--certificate is required")
	}
	var prompt passprompt.PasswordGetter = passprompt.PasswordPrompt{}
	if argPassword != "" {
		prompt = passprompt.Static{Password: argPassword}
	}
	return certloader.LoadPKCS12File(argCertificate, prompt)
}

func applyConfig() error {
	cfg, err := shared.CurrentConfig()
	if err != nil {
		return err
	}
	if argCertificate == "" {
		argCertificate = cfg.Certificate
	}
	if argFileDigest == "" {
		argFileDigest = cfg.FileDigest
		if argFileDigest == "" {
			argFileDigest = "sha256"
		}
	}
	if argTimestampURL == "" {
		argTimestampURL = cfg.TimestampURL
	}
	if argTimestampDigest == "" {
		argTimestampDigest = cfg.TimestampDigest
	}
	return nil
}

func runSign(cmd *cobra.Command, args []string) error {
	if err := applyConfig(); err != nil {
		return err
	}
	hash, err := xmldsig.HashByName(argFileDigest)
	if err != nil {
		return err
	}
	cert, err := loadIdentity()
	if err != nil {
		return err
	}
	pkg, err := opc.Open(args[0], opczip.ModeReadWrite)
	if err != nil {
		return err
	}
	defer pkg.Close()
	builder := opcsign.NewBuilder(pkg)
	builder.EnqueuePreset(opcsign.VSIXPreset{})
	sig, err := builder.Sign(hash, cert)
	if err != nil {
		return err
	}
	log.Info().
		Str("path", args[0]).
		Str("signature", sig.PartURI()).
		Str("digest", argFileDigest).
		Str("subject", cert.Leaf.Subject.String()).
		Msg("signed package")
	if argTimestampURL != "" {
		if err := timestampSignature(cmd.Context(), sig); err != nil {
			return err
		}
	}
	return pkg.Flush()
}

func timestampSignature(ctx context.Context, sig *opcsign.Signature) error {
	digest := argTimestampDigest
	if digest == "" {
		digest = argFileDigest
	}
	hash, err := xmldsig.HashByName(digest)
	if err != nil {
		return err
	}
	client := &pkcs9.TimestampClient{
		URL:     argTimestampURL,
		Timeout: time.Minute,
	}
	if err := sig.Timestamp(ctx, client, hash); err != nil {
		return err
	}
	log.Info().Str("url", argTimestampURL).Str("digest", digest).Msg("timestamped signature")
	return nil
}
