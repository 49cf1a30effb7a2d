package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewMonitorCommand creates the monitor command
func NewMonitorCommand() *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Stream server events",
		Long: `Stream events from the server until interrupted.

Each event is printed as one line; use --type to restrict the stream to
specific event types (operation, logging).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, closer, err := openRemote()
			if err != nil {
				return err
			}
			defer closer()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []hvdclient.EventsOption{
				hvdclient.WithErrorHook(func(err error) {
					fmt.Fprintf(os.Stderr, "event error: %v\n", err)
				}),
			}
			if len(types) > 0 {
				opts = append(opts, hvdclient.WithEventTypes(types...))
			}

			listener, err := remote.Events(ctx, printEvent, opts...)
			if err != nil {
				return err
			}

			if err := listener.Wait(); err != nil {
				return fmt.Errorf("event stream failed: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringSliceVar(&types, "type", nil, "event types to stream (repeatable)")

	return cmd
}

func printEvent(event hvd.Event) {
	if viper.GetString("output") == OutputFormatJSON {
		data, err := json.Marshal(event)
		if err != nil {
			return
		}

		fmt.Println(string(data))

		return
	}

	fmt.Printf("%s %-10s %v\n", event.Timestamp.Format("2006-01-02T15:04:05"), event.Type, event.Metadata)
}
