package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewOperationsCommand creates the operations command group
func NewOperationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"operation", "ops"},
		Short:   "Manage background operations",
		Long:    "List, inspect, wait on, and cancel background operations",
	}

	cmd.AddCommand(newOperationsListCommand())
	cmd.AddCommand(newOperationsShowCommand())
	cmd.AddCommand(newOperationsWaitCommand())
	cmd.AddCommand(newOperationsCancelCommand())

	return cmd
}

func newOperationsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List background operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operations, err := remote.Operations().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list operations: %w", err)
			}

			return renderResources(operations,
				[]string{"ID", "Description", "Status", "Created"},
				func(resource *hvdclient.Resource) []string {
					return []string{
						resource.ID(),
						detailString(resource, "description"),
						detailString(resource, "status"),
						detailString(resource, "created_at"),
					}
				})
		},
	}
}

func newOperationsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show operation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operation := remote.Operation(args[0])
			if _, err := operation.Read(context.Background()); err != nil {
				return fmt.Errorf("failed to read operation %q: %w", args[0], err)
			}

			return renderResource(&operation.Resource)
		},
	}
}

func newOperationsWaitCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wait ID",
		Short: "Wait for an operation to finish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operation := remote.Operation(args[0])
			if _, err := operation.Wait(context.Background(), timeout); err != nil {
				return fmt.Errorf("failed to wait for operation %q: %w", args[0], err)
			}

			status, err := operation.Status()
			if err != nil {
				return err
			}

			fmt.Printf("Operation %s: %s\n", args[0], status)

			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "server-side wait timeout (0 waits indefinitely)")

	return cmd
}

func newOperationsCancelCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a running operation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			operation := remote.Operation(args[0])
			if _, err := operation.Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to cancel operation %q: %w", args[0], err)
			}

			fmt.Printf("Operation %s cancelled\n", args[0])

			return nil
		},
	}
}
