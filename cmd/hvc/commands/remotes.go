package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hvd-io/hvd-client/internal/constants"
	"github.com/hvd-io/hvd-client/internal/endpoint"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// remoteEntry is one configured remote in the remotes file.
type remoteEntry struct {
	Addr          string `yaml:"addr"`
	ServerCert    string `yaml:"server-cert,omitempty"`
	ClientCert    string `yaml:"client-cert,omitempty"`
	ClientKey     string `yaml:"client-key,omitempty"`
	SkipTLSVerify bool   `yaml:"skip-tls-verify,omitempty"`
}

// remotesConfig is the on-disk remotes file layout.
type remotesConfig struct {
	DefaultRemote string                 `yaml:"default-remote,omitempty"`
	Remotes       map[string]remoteEntry `yaml:"remotes,omitempty"`
}

func remotesPath() (string, error) {
	if cfgFile := viper.ConfigFileUsed(); cfgFile != "" {
		return filepath.Join(filepath.Dir(cfgFile), "remotes.yml"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	return filepath.Join(home, ".hvc", "remotes.yml"), nil
}

func loadRemotes() (*remotesConfig, string, error) {
	path, err := remotesPath()
	if err != nil {
		return nil, "", err
	}

	config := &remotesConfig{Remotes: map[string]remoteEntry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, path, nil
		}

		return nil, "", fmt.Errorf("reading remotes file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, "", fmt.Errorf("parsing remotes file: %w", err)
	}

	if config.Remotes == nil {
		config.Remotes = map[string]remoteEntry{}
	}

	return config, path, nil
}

func saveRemotes(path string, config *remotesConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("encoding remotes file: %w", err)
	}

	if err := os.WriteFile(path, data, constants.ConfigFilePerm); err != nil {
		return fmt.Errorf("writing remotes file: %w", err)
	}

	return nil
}

// NewRemotesCommand creates the remotes command group
func NewRemotesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remotes",
		Aliases: []string{"remote"},
		Short:   "Manage configured remotes",
		Long:    "List, add, and remove named hvd server endpoints",
	}

	cmd.AddCommand(newRemotesListCommand())
	cmd.AddCommand(newRemotesAddCommand())
	cmd.AddCommand(newRemotesRemoveCommand())
	cmd.AddCommand(newRemotesSetDefaultCommand())

	return cmd
}

func newRemotesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured remotes",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := loadRemotes()
			if err != nil {
				return err
			}

			output := viper.GetString("output")
			if output == OutputFormatJSON || output == OutputFormatYAML {
				return encodeOutput(config)
			}

			if len(config.Remotes) == 0 {
				fmt.Println("No remotes configured")

				return nil
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Name", "Address", "Default")

			for name, entry := range config.Remotes {
				isDefault := ""
				if name == config.DefaultRemote {
					isDefault = "yes"
				}

				_ = table.Append(name, entry.Addr, isDefault)
			}

			table.Render()

			return nil
		},
	}
}

func newRemotesAddCommand() *cobra.Command {
	var (
		serverCert    string
		clientCert    string
		clientKey     string
		skipTLSVerify bool
		makeDefault   bool
	)

	cmd := &cobra.Command{
		Use:   "add NAME ADDRESS",
		Short: "Add a remote",
		Long:  "Add a named remote with a unix:// or https:// address",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, address := args[0], args[1]

			// validate the address up front
			if _, err := endpoint.Parse(address); err != nil {
				return fmt.Errorf("invalid address %q: %w", address, err)
			}

			config, path, err := loadRemotes()
			if err != nil {
				return err
			}

			if _, ok := config.Remotes[name]; ok {
				return fmt.Errorf("%w: %q", ErrRemoteExists, name)
			}

			config.Remotes[name] = remoteEntry{
				Addr:          address,
				ServerCert:    serverCert,
				ClientCert:    clientCert,
				ClientKey:     clientKey,
				SkipTLSVerify: skipTLSVerify,
			}

			if makeDefault || config.DefaultRemote == "" {
				config.DefaultRemote = name
			}

			if err := saveRemotes(path, config); err != nil {
				return err
			}

			fmt.Printf("Remote %q added\n", name)

			return nil
		},
	}

	cmd.Flags().StringVar(&serverCert, "server-cert", "", "path to the server certificate PEM")
	cmd.Flags().StringVar(&clientCert, "client-cert", "", "path to the client certificate PEM")
	cmd.Flags().StringVar(&clientKey, "client-key", "", "path to the client key PEM")
	cmd.Flags().BoolVar(&skipTLSVerify, "skip-tls-verify", false, "skip server certificate validation")
	cmd.Flags().BoolVar(&makeDefault, "default", false, "make this the default remote")

	return cmd
}

func newRemotesRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			config, path, err := loadRemotes()
			if err != nil {
				return err
			}

			if _, ok := config.Remotes[name]; !ok {
				return fmt.Errorf("%w: %q", ErrRemoteNotConfigured, name)
			}

			delete(config.Remotes, name)

			if config.DefaultRemote == name {
				config.DefaultRemote = ""
			}

			if err := saveRemotes(path, config); err != nil {
				return err
			}

			fmt.Printf("Remote %q removed\n", name)

			return nil
		},
	}
}

func newRemotesSetDefaultCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-default NAME",
		Short: "Set the default remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			config, path, err := loadRemotes()
			if err != nil {
				return err
			}

			if _, ok := config.Remotes[name]; !ok {
				return fmt.Errorf("%w: %q", ErrRemoteNotConfigured, name)
			}

			config.DefaultRemote = name

			if err := saveRemotes(path, config); err != nil {
				return err
			}

			fmt.Printf("Default remote set to %q\n", name)

			return nil
		},
	}
}
