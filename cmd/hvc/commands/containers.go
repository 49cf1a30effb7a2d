package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
)

// NewContainersCommand creates the containers command group
func NewContainersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "containers",
		Aliases: []string{"container"},
		Short:   "Manage containers",
		Long:    "List and manage containers on an hvd server",
	}

	cmd.AddCommand(newContainersListCommand())
	cmd.AddCommand(newContainersShowCommand())
	cmd.AddCommand(newContainersCreateCommand())
	cmd.AddCommand(newContainersDeleteCommand())
	cmd.AddCommand(newContainersRenameCommand())
	cmd.AddCommand(newContainersSnapshotsCommand())
	cmd.AddCommand(newContainersLogsCommand())

	return cmd
}

func newContainersLogsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logs CONTAINER [FILE]",
		Short: "List or fetch container log files",
		Long:  "Without FILE, list the container's log files; with FILE, write its contents to stdout",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			logs, err := remote.Containers().GetHandle(args[0]).Sub("logs")
			if err != nil {
				return err
			}

			ctx := context.Background()

			if len(args) == 1 {
				listed, err := logs.Read(ctx, false)
				if err != nil {
					return fmt.Errorf("failed to list logs of %q: %w", args[0], err)
				}

				for _, logfile := range listed {
					fmt.Println(logfile.ID())
				}

				return nil
			}

			resp, err := logs.GetHandle(args[1]).Read(ctx)
			if err != nil {
				return fmt.Errorf("failed to fetch log %q: %w", args[1], err)
			}

			if _, err := resp.WriteTo(os.Stdout); err != nil {
				return fmt.Errorf("failed to write log %q: %w", args[1], err)
			}

			return nil
		},
	}
}

func newContainersListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			containers, err := remote.Containers().Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list containers: %w", err)
			}

			return renderResources(containers,
				[]string{"Name", "Status", "Ephemeral"},
				func(resource *hvdclient.Resource) []string {
					return []string{
						resource.ID(),
						detailString(resource, "status"),
						detailString(resource, "ephemeral"),
					}
				})
		},
	}
}

func newContainersShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Show container details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			container, err := remote.Containers().Get(context.Background(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read container %q: %w", args[0], err)
			}

			return renderResource(container)
		},
	}
}

func newContainersCreateCommand() *cobra.Command {
	var (
		image     string
		profiles  []string
		ephemeral bool
		wait      bool
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a container",
		Long:  "Create a container from an image alias or fingerprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			details := map[string]interface{}{
				"name":      args[0],
				"ephemeral": ephemeral,
				"source": map[string]interface{}{
					"type":  "image",
					"alias": image,
				},
			}
			if len(profiles) > 0 {
				details["profiles"] = profiles
			}

			result, err := remote.Containers().Create(context.Background(), details)
			if err != nil {
				return fmt.Errorf("failed to create container %q: %w", args[0], err)
			}

			return reportCreateResult(result, wait)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "image alias or fingerprint")
	cmd.Flags().StringSliceVar(&profiles, "profile", nil, "profiles to apply (repeatable)")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "delete the container when it stops")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the background operation to finish")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

func newContainersDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			container := remote.Containers().GetHandle(args[0])
			if _, err := container.Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete container %q: %w", args[0], err)
			}

			fmt.Printf("Container %q deleted\n", args[0])

			return nil
		},
	}
}

func newContainersRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename NAME NEW_NAME",
		Short: "Rename a container",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			container := remote.Containers().GetHandle(args[0])
			if _, err := container.Rename(context.Background(), args[1]); err != nil {
				return fmt.Errorf("failed to rename container %q: %w", args[0], err)
			}

			fmt.Printf("Container %q renamed to %q\n", args[0], args[1])

			return nil
		},
	}
}

func newContainersSnapshotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "snapshots",
		Aliases: []string{"snapshot"},
		Short:   "Manage container snapshots",
	}

	cmd.AddCommand(newSnapshotsListCommand())
	cmd.AddCommand(newSnapshotsCreateCommand())
	cmd.AddCommand(newSnapshotsDeleteCommand())

	return cmd
}

func newSnapshotsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list CONTAINER",
		Short: "List snapshots of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			snapshots, err := remote.Containers().GetHandle(args[0]).Sub("snapshots")
			if err != nil {
				return err
			}

			listed, err := snapshots.Read(context.Background(), true)
			if err != nil {
				return fmt.Errorf("failed to list snapshots of %q: %w", args[0], err)
			}

			return renderResources(listed,
				[]string{"Name", "Stateful", "Created"},
				func(resource *hvdclient.Resource) []string {
					return []string{
						resource.ID(),
						detailString(resource, "stateful"),
						detailString(resource, "created_at"),
					}
				})
		},
	}
}

func newSnapshotsCreateCommand() *cobra.Command {
	var (
		stateful bool
		wait     bool
	)

	cmd := &cobra.Command{
		Use:   "create CONTAINER NAME",
		Short: "Create a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			snapshots, err := remote.Containers().GetHandle(args[0]).Sub("snapshots")
			if err != nil {
				return err
			}

			result, err := snapshots.Create(context.Background(), map[string]interface{}{
				"name":     args[1],
				"stateful": stateful,
			})
			if err != nil {
				return fmt.Errorf("failed to snapshot %q: %w", args[0], err)
			}

			return reportCreateResult(result, wait)
		},
	}

	cmd.Flags().BoolVar(&stateful, "stateful", false, "snapshot the runtime state too")
	cmd.Flags().BoolVar(&wait, "wait", false, "wait for the background operation to finish")

	return cmd
}

func newSnapshotsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete CONTAINER NAME",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			snapshots, err := remote.Containers().GetHandle(args[0]).Sub("snapshots")
			if err != nil {
				return err
			}

			if _, err := snapshots.GetHandle(args[1]).Delete(context.Background()); err != nil {
				return fmt.Errorf("failed to delete snapshot %q: %w", args[1], err)
			}

			fmt.Printf("Snapshot %q deleted\n", args[1])

			return nil
		},
	}
}

// reportCreateResult prints the outcome of a creation call, optionally
// blocking on its background operation.
func reportCreateResult(result *hvdclient.CreateResult, wait bool) error {
	switch {
	case result.Operation != nil:
		if !wait {
			fmt.Printf("Operation %s started\n", result.Operation.ID())

			return nil
		}

		if _, err := result.Operation.Wait(context.Background(), 10*time.Minute); err != nil {
			return fmt.Errorf("waiting for operation: %w", err)
		}

		status, err := result.Operation.Status()
		if err != nil {
			return err
		}

		if status != hvdclient.OperationSuccess {
			return fmt.Errorf("operation %s finished with status %q", result.Operation.ID(), status) //nolint:err113
		}

		fmt.Printf("Operation %s finished\n", result.Operation.ID())

		return nil

	case result.Resource != nil:
		fmt.Printf("Created %s\n", result.Resource.URI())

		return nil

	default:
		return encodeOutput(printable(result.Metadata))
	}
}
