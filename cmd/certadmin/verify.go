package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamscao/eventcert/internal/verify"
)

var errNotVerified = errors.New("certificate not verified")

func addVerifyCommand(parent *cobra.Command, a *app) {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a certificate against the local database",
		Long: `Verify a certificate by search term, QR payload or public key and signature.

Examples:
  certadmin verify search "Jane Doe"
  certadmin verify qr '{"certificateId":"IEEE-1709251200000-1A2B3C4D"}'
  certadmin verify key --public-key-file jane.pub --signature "$SIG"`,
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find a certificate by id, participant or event substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, verify.Request{Mode: verify.ModeSearch, Query: args[0]})
		},
	}

	qrCmd := &cobra.Command{
		Use:   "qr <scanned-text>",
		Short: "Resolve scanned QR text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd, verify.Request{Mode: verify.ModeQR, Data: args[0]})
		},
	}

	var (
		publicKeyFile string
		signature     string
		signatureFile string
	)
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Check a signature against the certificate bound to a public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pub, err := os.ReadFile(publicKeyFile)
			if err != nil {
				return fmt.Errorf("failed to read public key: %w", err)
			}

			if signatureFile != "" {
				b, err := os.ReadFile(signatureFile)
				if err != nil {
					return fmt.Errorf("failed to read signature: %w", err)
				}
				signature = strings.TrimSpace(string(b))
			}
			if signature == "" {
				return fmt.Errorf("either --signature or --signature-file must be provided")
			}

			return a.runVerify(cmd, verify.Request{Mode: verify.ModeKey, PublicKey: string(pub), Signature: signature})
		},
	}
	keyCmd.Flags().StringVar(&publicKeyFile, "public-key-file", "", "PEM public key file (required)")
	keyCmd.Flags().StringVar(&signature, "signature", "", "Base64 signature")
	keyCmd.Flags().StringVar(&signatureFile, "signature-file", "", "File holding the base64 signature")
	_ = keyCmd.MarkFlagRequired("public-key-file")

	cmd.AddCommand(searchCmd, qrCmd, keyCmd)
	parent.AddCommand(cmd)
}

func (a *app) runVerify(cmd *cobra.Command, req verify.Request) error {
	if err := a.open(); err != nil {
		return err
	}
	defer a.close()

	res, err := verify.NewResolver(a.certs()).Resolve(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !res.Valid {
		fmt.Fprintf(out, "NOT VERIFIED: %s\n", res.Reason)
		return errNotVerified
	}

	fmt.Fprintln(out, "VERIFIED")
	printCertificate(out, res.Record)
	return nil
}
