package commands

import (
	"context"
	"fmt"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewNetworksCommand creates the networks command group
func NewNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "networks",
		Aliases: []string{"network"},
		Short:   "Manage networks",
	}

	cmd.AddCommand(newNetworksListCommand())
	cmd.AddCommand(newNetworksShowCommand())
	cmd.AddCommand(newNetworksCreateCommand())
	cmd.AddCommand(newNetworksDeleteCommand())
	cmd.AddCommand(newNetworksRenameCommand())

	return cmd
}

func newNetworksListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List networks",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			networks, err := remote.Networks().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list networks: %w", err)
			}

			return renderResources(networks,
				[]string{"Name", "Type", "Managed"},
				func(resource *hvdclient.Resource) []string {
					return []string{
						resource.ID(),
						detailString(resource, "type"),
						detailString(resource, "managed"),
					}
				})
		},
	}
}

func newNetworksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show network details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			network, err := remote.Networks().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read network %q: %w", args[0], err)
			}

			return renderResource(network)
		},
	}
}

func newNetworksCreateCommand() *cobra.Command {
	var config map[string]string

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			details := map[string]interface{}{"name": args[0]}
			if len(config) > 0 {
				options := make(map[string]interface{}, len(config))
				for key, value := range config {
					options[key] = value
				}

				details["config"] = options
			}

			if _, err := remote.Networks().Create(context.Background(), details); err != nil {
				return fmt.Errorf("failed to create network %q: %w", args[0], err)
			}

			fmt.Printf("Network %q created\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringToStringVar(&config, "config", nil, "network config options (key=value, repeatable)")

	return cmd
}

func newNetworksDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.Networks().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete network %q: %w", args[0], err)
			}

			fmt.Printf("Network %q deleted\n", args[0])

			return nil
		},
	}
}

func newNetworksRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME NEW_NAME",
		Short: "Rename a network",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			network := remote.Networks().GetHandle(args[0])
			if _, err := network.Rename(context.Background(), args[1]); err != nil {
				return fmt.Errorf("failed to rename network %q: %w", args[0], err)
			}

			fmt.Printf("Network %q renamed to %q\n", args[0], args[1])

			return nil
		},
	}
}
