package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command group
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show server information",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			info, err := remote.Info(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read server info: %w", err)
			}

			return renderDetails(info)
		},
	}

	cmd.AddCommand(newInfoResourcesCommand())
	cmd.AddCommand(newInfoConfigCommand())
	cmd.AddCommand(newInfoVersionsCommand())

	return cmd
}

func newInfoResourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "Show server hardware resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			usage, err := remote.ServerResources(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read server resources: %w", err)
			}

			return renderDetails(usage)
		},
	}
}

func newInfoConfigCommand() *cobra.Command {
	var (
		set     map[string]string
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change server configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			ctx := context.Background()

			if len(set) == 0 {
				config, err := remote.Config(ctx)
				if err != nil {
					return fmt.Errorf("failed to read server config: %w", err)
				}

				return renderDetails(config)
			}

			options := make(map[string]interface{}, len(set))
			for key, value := range set {
				options[key] = value
			}

			config, err := remote.SetConfig(ctx, options, replace)
			if err != nil {
				return fmt.Errorf("failed to change server config: %w", err)
			}

			return renderDetails(config)
		},
	}

	cmd.Flags().StringToStringVar(&set, "set", nil, "config options to apply (key=value, repeatable)")
	cmd.Flags().BoolVar(&replace, "replace", false, "replace the configuration instead of merging")

	return cmd
}

func newInfoVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List API versions offered by the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			versions, err := remote.APIVersions(context.Background())
			if err != nil {
				return fmt.Errorf("failed to read API versions: %w", err)
			}

			for _, version := range versions {
				fmt.Println(version)
			}

			return nil
		},
	}
}
