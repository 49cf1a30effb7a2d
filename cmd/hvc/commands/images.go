package commands

import (
	"context"
	"fmt"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewImagesCommand creates the images command group
func NewImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage images",
		Long:    "List and manage images and their aliases",
	}

	cmd.AddCommand(newImagesListCommand())
	cmd.AddCommand(newImagesShowCommand())
	cmd.AddCommand(newImagesDeleteCommand())
	cmd.AddCommand(newImagesSecretCommand())
	cmd.AddCommand(newImagesRefreshCommand())
	cmd.AddCommand(newImagesAliasesCommand())

	return cmd
}

func newImagesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List images",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			images, err := remote.Images().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list images: %w", err)
			}

			return renderResources(images,
				[]string{"Fingerprint", "Public", "Size", "Uploaded"},
				func(resource *hvdclient.Resource) []string {
					fingerprint := resource.ID()
					if len(fingerprint) > 12 {
						fingerprint = fingerprint[:12]
					}

					return []string{
						fingerprint,
						detailString(resource, "public"),
						detailString(resource, "size"),
						detailString(resource, "uploaded_at"),
					}
				})
		},
	}
}

func newImagesShowCommand() *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "show FINGERPRINT",
		Short: "Show image details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			image := remote.Images().GetHandle(args[0])

			ctx := context.Background()
			if secret != "" {
				_, err = image.ReadWithSecret(ctx, secret)
			} else {
				_, err = image.Read(ctx)
			}

			if err != nil {
				return fmt.Errorf("failed to read image %q: %w", args[0], err)
			}

			return renderResource(image)
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "access secret for a private image")

	return cmd
}

func newImagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete FINGERPRINT",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.Images().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete image %q: %w", args[0], err)
			}

			fmt.Printf("Image %q deleted\n", args[0])

			return nil
		},
	}
}

func newImagesSecretCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "secret FINGERPRINT",
		Short: "Create an access secret for an image",
		Long:  "Create a one-time secret that lets an untrusted client fetch the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operation, err := remote.Images().GetHandle(args[0]).Secret(context.Background())
			if err != nil {
				return fmt.Errorf("failed to create secret for %q: %w", args[0], err)
			}

			payload, err := operation.Detail("metadata")
			if err != nil {
				return err
			}

			metadata, _ := payload.(map[string]interface{})
			if secret, ok := metadata["secret"].(string); ok {
				fmt.Println(secret)

				return nil
			}

			fmt.Printf("Operation %s started\n", operation.ID())

			return nil
		},
	}
}

func newImagesRefreshCommand() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "refresh FINGERPRINT",
		Short: "Refresh an image from its origin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operation, err := remote.Images().GetHandle(args[0]).Refresh(context.Background())
			if err != nil {
				return fmt.Errorf("failed to refresh image %q: %w", args[0], err)
			}

			return reportCreateResult(&hvdclient.CreateResult{Operation: operation}, wait)
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the background operation to finish")

	return cmd
}

func newImagesAliasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "aliases",
		Aliases: []string{"alias"},
		Short:   "Manage image aliases",
	}

	cmd.AddCommand(newAliasesListCommand())
	cmd.AddCommand(newAliasesAddCommand())
	cmd.AddCommand(newAliasesDeleteCommand())

	return cmd
}

func newAliasesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List image aliases",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			aliases, err := remote.ImageAliases().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list image aliases: %w", err)
			}

			return renderResources(aliases,
				[]string{"Name", "Target", "Description"},
				func(resource *hvdclient.Resource) []string {
					return []string{
						resource.ID(),
						detailString(resource, "target"),
						detailString(resource, "description"),
					}
				})
		},
	}
}

func newAliasesAddCommand() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add NAME FINGERPRINT",
		Short: "Add an image alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			_, err = remote.ImageAliases().Create(context.Background(), map[string]interface{}{
				"name":        args[0],
				"target":      args[1],
				"description": description,
			})
			if err != nil {
				return fmt.Errorf("failed to add alias %q: %w", args[0], err)
			}

			fmt.Printf("Alias %q added\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "alias description")

	return cmd
}

func newAliasesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an image alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.ImageAliases().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete alias %q: %w", args[0], err)
			}

			fmt.Printf("Alias %q deleted\n", args[0])

			return nil
		},
	}
}
