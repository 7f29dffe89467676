package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/adamscao/eventcert/internal/cert"
	"github.com/adamscao/eventcert/internal/models"
	"github.com/adamscao/eventcert/internal/policy"
	"github.com/adamscao/eventcert/pkg/keyutil"
)

func addIssueCommand(parent *cobra.Command, a *app) {
	var (
		req    cert.IssueRequest
		keyOut string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue and store a new certificate",
		Long: `Issue a certificate: generate its identifier and key pair, sign the
canonical payload and store the record.

The private key is printed once (or written to --key-out with mode 0600)
and is never stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			if err := policy.NewValidator(a.cfg.Issuance).ValidateIssueRequest(req); err != nil {
				return err
			}

			issuer := cert.NewIssuer(
				cert.NewIDGenerator(a.cfg.Issuance.IDPrefix),
				cert.NewKeyGenerator(a.cfg.Issuance.KeyBits),
				a.cfg.Issuance.OrganizerName,
			)

			issued, err := issuer.Issue(req)
			if err != nil {
				return fmt.Errorf("failed to issue certificate: %w", err)
			}

			if err := a.certs().Create(cmd.Context(), issued.Record); err != nil {
				return fmt.Errorf("failed to store certificate: %w", err)
			}

			out := cmd.OutOrStdout()
			printCertificate(out, issued.Record)

			if keyOut != "" {
				if err := os.WriteFile(keyOut, []byte(issued.PrivateKeyPEM), 0o600); err != nil {
					return fmt.Errorf("failed to write private key: %w", err)
				}
				fmt.Fprintf(out, "\nPrivate key written to %s\n", keyOut)
			} else {
				fmt.Fprintf(out, "\n%s", issued.PrivateKeyPEM)
			}
			fmt.Fprintf(out, "\nThe private key is not stored. Keep it safe.\n")

			return nil
		},
	}

	cmd.Flags().StringVarP(&req.ParticipantName, "participant", "p", "", "Participant name (required)")
	cmd.Flags().StringVarP(&req.EventName, "event", "e", "", "Event name (required)")
	cmd.Flags().StringVarP(&req.EventDate, "date", "d", "", "Event date (required)")
	cmd.Flags().StringVar(&req.OrganizerName, "organizer", "", "Organizer name (defaults to issuance.organizer_name)")
	cmd.Flags().StringVar(&req.Description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&keyOut, "key-out", "", "Write the private key PEM to this file instead of stdout")

	_ = cmd.MarkFlagRequired("participant")
	_ = cmd.MarkFlagRequired("event")
	_ = cmd.MarkFlagRequired("date")

	parent.AddCommand(cmd)
}

func addShowCommand(parent *cobra.Command, a *app) {
	var showKey bool

	cmd := &cobra.Command{
		Use:   "show <certificate-id>",
		Short: "Show a stored certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			rec, err := a.certs().GetByCertificateID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load certificate %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			printCertificate(out, rec)
			fmt.Fprintf(out, "Signature:   %s\n", rec.Signature)
			if showKey {
				fmt.Fprintf(out, "\n%s", rec.PublicKey)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showKey, "public-key", false, "Also print the public key PEM")
	parent.AddCommand(cmd)
}

func addListCommand(parent *cobra.Command, a *app) {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recently issued certificates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			certs, err := a.certs().List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to list certificates: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(certs) == 0 {
				fmt.Fprintln(out, "No certificates found")
				return nil
			}

			fmt.Fprintf(out, "%-28s %-24s %-28s %-12s %s\n", "ID", "Participant", "Event", "Date", "Issued")
			fmt.Fprintln(out, "------------------------------------------------------------------------------------------------------------")
			for _, c := range certs {
				fmt.Fprintf(out, "%-28s %-24s %-28s %-12s %s\n",
					c.CertificateID,
					c.ParticipantName,
					c.EventName,
					c.EventDate,
					c.CreatedAt.Format("2006-01-02 15:04:05"),
				)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of certificates")
	parent.AddCommand(cmd)
}

func addQRCommand(parent *cobra.Command, a *app) {
	var outPath string

	cmd := &cobra.Command{
		Use:   "qr <certificate-id>",
		Short: "Render the QR code of a certificate as PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			defer a.close()

			rec, err := a.certs().GetByCertificateID(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load certificate %s: %w", args[0], err)
			}

			png, err := cert.NewQRCodec(a.cfg.QR.Size, a.cfg.QR.Margin).Encode(cert.QRPayload{CertificateID: rec.CertificateID})
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = rec.CertificateID + ".png"
			}
			if err := os.WriteFile(outPath, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "QR code written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default <certificate-id>.png)")
	parent.AddCommand(cmd)
}

func printCertificate(out io.Writer, c *models.Certificate) {
	fmt.Fprintf(out, "Certificate: %s\n", c.CertificateID)
	fmt.Fprintf(out, "Participant: %s\n", c.ParticipantName)
	fmt.Fprintf(out, "Event:       %s (%s)\n", c.EventName, c.EventDate)
	fmt.Fprintf(out, "Organizer:   %s\n", c.OrganizerName)
	if c.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", c.Description)
	}
	if c.CertificateURL != "" {
		fmt.Fprintf(out, "URL:         %s\n", c.CertificateURL)
	}
	fmt.Fprintf(out, "Issued:      %s\n", c.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	if fp, err := keyutil.Fingerprint(c.PublicKey); err == nil {
		fmt.Fprintf(out, "Key:         %s\n", fp)
	}
}
