package commands

import (
	"context"
	"fmt"
	"os"
	"syscall"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewCertificatesCommand creates the certificates command group
func NewCertificatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "certificates",
		Aliases: []string{"certificate", "certs"},
		Short:   "Manage trusted certificates",
		Long:    "List and manage the client certificates trusted by the server",
	}

	cmd.AddCommand(newCertificatesListCommand())
	cmd.AddCommand(newCertificatesShowCommand())
	cmd.AddCommand(newCertificatesAddCommand())
	cmd.AddCommand(newCertificatesRemoveCommand())

	return cmd
}

func newCertificatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List trusted certificates",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			certificates, err := remote.Certificates().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list certificates: %w", err)
			}

			return renderResources(certificates,
				[]string{"Fingerprint", "Type"},
				func(resource *hvdclient.Resource) []string {
					fingerprint := resource.ID()
					if len(fingerprint) > 12 {
						fingerprint = fingerprint[:12]
					}

					return []string{fingerprint, detailString(resource, "type")}
				})
		},
	}
}

func newCertificatesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show FINGERPRINT",
		Short: "Show certificate details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			certificate, err := remote.Certificates().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read certificate %q: %w", args[0], err)
			}

			return renderResource(certificate)
		},
	}
}

func newCertificatesAddCommand() *cobra.Command {
	var (
		certFile string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Trust a client certificate",
		Long: `Register a client certificate with the server.

Without --cert-file the server is asked to trust the certificate used for
this connection, which requires the server trust password.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			details := map[string]interface{}{
				"type": "client",
				"name": name,
			}

			if certFile != "" {
				pem, err := os.ReadFile(certFile)
				if err != nil {
					return fmt.Errorf("reading certificate file: %w", err)
				}

				details["certificate"] = string(pem)
			} else {
				fmt.Print("Server trust password: ")

				passwordBytes, err := term.ReadPassword(syscall.Stdin)

				fmt.Println()

				if err != nil {
					return fmt.Errorf("reading trust password: %w", err)
				}

				details["password"] = string(passwordBytes)
			}

			if _, err := remote.Certificates().Create(context.Background(), details); err != nil {
				return fmt.Errorf("failed to add certificate: %w", err)
			}

			fmt.Println("Certificate added")

			return nil
		},
	}

	cmd.Flags().StringVar(&certFile, "cert-file", "", "path to a certificate PEM to trust")
	cmd.Flags().StringVar(&name, "name", "", "name for the certificate entry")

	return cmd
}

func newCertificatesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove FINGERPRINT",
		Short: "Remove a trusted certificate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.Certificates().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to remove certificate %q: %w", args[0], err)
			}

			fmt.Printf("Certificate %q removed\n", args[0])

			return nil
		},
	}
}
