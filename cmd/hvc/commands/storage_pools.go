package commands

import (
	"context"
	"fmt"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewStoragePoolsCommand creates the storage pools command group
func NewStoragePoolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "storage-pools",
		Aliases: []string{"storage-pool", "storage"},
		Short:   "Manage storage pools",
	}

	cmd.AddCommand(newStoragePoolsListCommand())
	cmd.AddCommand(newStoragePoolsShowCommand())
	cmd.AddCommand(newStoragePoolsCreateCommand())
	cmd.AddCommand(newStoragePoolsDeleteCommand())
	cmd.AddCommand(newStoragePoolsUsageCommand())

	return cmd
}

func newStoragePoolsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List storage pools",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			pools, err := remote.StoragePools().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list storage pools: %w", err)
			}

			return renderResources(pools,
				[]string{"Name", "Driver", "Used By"},
				func(resource *hvdclient.Resource) []string {
					usedBy := 0
					if value, err := resource.Detail("used_by"); err == nil {
						if list, ok := value.([]interface{}); ok {
							usedBy = len(list)
						}
					}

					return []string{
						resource.ID(),
						detailString(resource, "driver"),
						fmt.Sprintf("%d", usedBy),
					}
				})
		},
	}
}

func newStoragePoolsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show storage pool details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			pool, err := remote.StoragePools().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read storage pool %q: %w", args[0], err)
			}

			return renderResource(pool)
		},
	}
}

func newStoragePoolsCreateCommand() *cobra.Command {
	var (
		driver string
		config map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a storage pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			details := map[string]interface{}{
				"name":   args[0],
				"driver": driver,
			}
			if len(config) > 0 {
				options := make(map[string]interface{}, len(config))
				for key, value := range config {
					options[key] = value
				}

				details["config"] = options
			}

			if _, err := remote.StoragePools().Create(context.Background(), details); err != nil {
				return fmt.Errorf("failed to create storage pool %q: %w", args[0], err)
			}

			fmt.Printf("Storage pool %q created\n", args[0])

			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "dir", "storage driver")
	cmd.Flags().StringToStringVar(&config, "config", nil, "pool config options (key=value, repeatable)")

	return cmd
}

func newStoragePoolsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a storage pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			if _, err := remote.StoragePools().GetHandle(args[0]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete storage pool %q: %w", args[0], err)
			}

			fmt.Printf("Storage pool %q deleted\n", args[0])

			return nil
		},
	}
}

func newStoragePoolsUsageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "usage NAME",
		Short: "Show storage pool usage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			usage, err := remote.StoragePools().GetHandle(args[0]).PoolResources(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read usage of %q: %w", args[0], err)
			}

			return renderDetails(usage)
		},
	}
}
