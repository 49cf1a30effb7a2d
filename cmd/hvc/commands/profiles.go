package commands

import (
	"context"
	"fmt"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewProfilesCommand creates the profiles command group
func NewProfilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage profiles",
		Long:    "List and manage configuration profiles applied to containers",
	}

	cmd.AddCommand(newProfilesListCommand())
	cmd.AddCommand(newProfilesShowCommand())
	cmd.AddCommand(newProfilesCreateCommand())
	cmd.AddCommand(newProfilesEditCommand())
	cmd.AddCommand(newProfilesDeleteCommand())
	cmd.AddCommand(newProfilesRenameCommand())

	return cmd
}

func newProfilesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			profiles, err := remote.Profiles().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}

			return renderResources(profiles,
				[]string{"Name", "Description", "Used By"},
				func(resource *hvdclient.Resource) []string {
					usedBy := 0
					if value, err := resource.Detail("used_by"); err == nil {
						if list, ok := value.([]interface{}); ok {
							usedBy = len(list)
						}
					}

					return []string{
						resource.ID(),
						detailString(resource, "description"),
						fmt.Sprintf("%d", usedBy),
					}
				})
		},
	}
}

func newProfilesShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show profile details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			profile, err := remote.Profiles().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read profile %q: %w", args[0], err)
			}

			return renderResource(profile)
		},
	}
}

func newProfilesCreateCommand() *cobra.Command {
	var (
		description string
		config      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			details := map[string]interface{}{
				"name":        args[0],
				"description": description,
			}
			if len(config) > 0 {
				options := make(map[string]interface{}, len(config))
				for key, value := range config {
					options[key] = value
				}

				details["config"] = options
			}

			if _, err := remote.Profiles().Create(context.Background(), details); err != nil {
				return fmt.Errorf("failed to create profile %q: %w", args[0], err)
			}

			fmt.Printf("Profile %q created\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "profile description")
	cmd.Flags().StringToStringVar(&config, "config", nil, "profile config options (key=value, repeatable)")

	return cmd
}

func newProfilesEditCommand() *cobra.Command {
	var (
		config  map[string]string
		noETag  bool
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "edit NAME",
		Short: "Edit profile configuration",
		Long: `Apply configuration changes to a profile.

The profile is read first so the change carries its concurrency token; a
concurrent modification on the server fails the edit instead of silently
overwriting it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			ctx := context.Background()

			profile, err := remote.Profiles().Get(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to read profile %q: %w", args[0], err)
			}

			options := make(map[string]interface{}, len(config))
			for key, value := range config {
				options[key] = value
			}

			details := map[string]interface{}{"config": options}

			var requestOpts []hvdclient.RequestOption
			if noETag {
				requestOpts = append(requestOpts, hvdclient.WithoutETag())
			}

			if replace {
				_, err = profile.Replace(ctx, details, requestOpts...)
			} else {
				_, err = profile.Update(ctx, details, requestOpts...)
			}

			if err != nil {
				return fmt.Errorf("failed to edit profile %q: %w", args[0], err)
			}

			fmt.Printf("Profile %q updated\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringToStringVar(&config, "config", nil, "config options to apply (key=value, repeatable)")
	cmd.Flags().BoolVar(&noETag, "force", false, "apply without the concurrency precondition")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the configuration instead of merging")

	return cmd
}

func newProfilesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.Profiles().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete profile %q: %w", args[0], err)
			}

			fmt.Printf("Profile %q deleted\n", args[0])

			return nil
		},
	}
}

func newProfilesRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME NEW_NAME",
		Short: "Rename a profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			profile := remote.Profiles().GetHandle(args[0])
			if _, err := profile.Rename(context.Background(), args[1]); err != nil {
				return fmt.Errorf("failed to rename profile %q: %w", args[0], err)
			}

			fmt.Printf("Profile %q renamed to %q\n", args[0], args[1])

			return nil
		},
	}
}
