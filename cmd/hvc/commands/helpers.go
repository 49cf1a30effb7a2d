package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/hvd-io/hvd-client/pkg/hvd"
	"github.com/hvd-io/hvd-client/pkg/hvdclient"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Common string constants used throughout the commands package.
const (
	NotAvailable = "N/A"

	// Output formats.
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

// Common static errors used throughout the commands package.
var (
	ErrRemoteNotConfigured = errors.New("remote not found in the remotes configuration")
	ErrRemoteNameRequired  = errors.New("remote name is required")
	ErrRemoteExists        = errors.New("remote already exists")
	ErrNoDefaultRemote     = errors.New("no default remote configured")
)

// stderrLogger writes structured log lines to stderr for --verbose runs.
type stderrLogger struct{}

func (stderrLogger) Debug(msg string, fields map[string]interface{}) { logLine("DEBUG", msg, fields) }
func (stderrLogger) Info(msg string, fields map[string]interface{})  { logLine("INFO", msg, fields) }
func (stderrLogger) Warn(msg string, fields map[string]interface{})  { logLine("WARN", msg, fields) }
func (stderrLogger) Error(msg string, fields map[string]interface{}) { logLine("ERROR", msg, fields) }

func logLine(level, msg string, fields map[string]interface{}) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, fields[key]))
	}

	fmt.Fprintf(os.Stderr, "[%s] %s %s\n", level, msg, strings.Join(parts, " "))
}

// openRemote resolves the target remote from flags and the remotes
// configuration, opens a session, and returns it with its closer.
func openRemote() (*hvdclient.Remote, func(), error) {
	entry, err := resolveRemote()
	if err != nil {
		return nil, nil, err
	}

	cfg := &hvd.Config{
		Address:            entry.Addr,
		ServerCert:         entry.ServerCert,
		ClientCert:         entry.ClientCert,
		ClientKey:          entry.ClientKey,
		InsecureSkipVerify: entry.SkipTLSVerify || viper.GetBool("skip-tls-verify"),
	}

	if viper.GetBool("verbose") {
		cfg.Debug = true
		cfg.Logger = stderrLogger{}
	}

	remote, err := hvdclient.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("configuring remote: %w", err)
	}

	if err := remote.Open(); err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", remote.Address(), err)
	}

	return remote, func() { _ = remote.Close() }, nil
}

// resolveRemote picks the target: an explicit --address wins, then the
// --remote name, then the configured default, then the local unix socket.
func resolveRemote() (remoteEntry, error) {
	if address := viper.GetString("address"); address != "" {
		return remoteEntry{Addr: address}, nil
	}

	remotes, _, err := loadRemotes()
	if err != nil {
		return remoteEntry{}, err
	}

	name := viper.GetString("remote")
	if name == "" {
		name = remotes.DefaultRemote
	}

	if name == "" {
		return remoteEntry{Addr: "unix://"}, nil
	}

	entry, ok := remotes.Remotes[name]
	if !ok {
		return remoteEntry{}, fmt.Errorf("%w: %q", ErrRemoteNotConfigured, name)
	}

	return entry, nil
}

// printable rewrites expanded resource handles back into their URIs so a
// detail payload can be serialized for output.
func printable(value interface{}) interface{} {
	switch val := value.(type) {
	case *hvdclient.Resource:
		return val.URI()
	case *hvdclient.Operation:
		return val.URI()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for key, item := range val {
			out[key] = printable(item)
		}

		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = printable(item)
		}

		return out
	default:
		return value
	}
}

// snapshot returns the printable detail payload of a resource, or a URI
// stub for handles without one.
func snapshot(resource *hvdclient.Resource) map[string]interface{} {
	details, err := resource.Details()
	if err != nil {
		return map[string]interface{}{"uri": resource.URI()}
	}

	out, _ := printable(details).(map[string]interface{})

	return out
}

// detailString formats one detail field for table output.
func detailString(resource *hvdclient.Resource, key string) string {
	value, err := resource.Detail(key)
	if err != nil {
		return NotAvailable
	}

	return fmt.Sprintf("%v", printable(value))
}

func encodeOutput(value interface{}) error {
	switch viper.GetString("output") {
	case OutputFormatJSON:
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	default:
		encoder := yaml.NewEncoder(os.Stdout)

		return encoder.Encode(value)
	}
}

func cells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

// renderResources prints a resource listing in the configured output
// format. The row function supplies the table cells for one resource.
func renderResources(resources []*hvdclient.Resource, headers []string, row func(*hvdclient.Resource) []string) error {
	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		payloads := make([]map[string]interface{}, 0, len(resources))
		for _, resource := range resources {
			payloads = append(payloads, snapshot(resource))
		}

		return encodeOutput(payloads)
	}

	if len(resources) == 0 {
		fmt.Println("No resources found")

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header(cells(headers)...)

	for _, resource := range resources {
		_ = table.Append(cells(row(resource))...)
	}

	table.Render()

	return nil
}

// renderDetails prints one detail payload, as sorted key/value rows in
// table mode.
func renderDetails(details map[string]interface{}) error {
	payload, _ := printable(details).(map[string]interface{})

	output := viper.GetString("output")
	if output == OutputFormatJSON || output == OutputFormatYAML {
		return encodeOutput(payload)
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Key", "Value")

	for _, key := range keys {
		_ = table.Append(key, strings.TrimSpace(fmt.Sprintf("%v", payload[key])))
	}

	table.Render()

	return nil
}

// renderResource prints one resource's snapshot.
func renderResource(resource *hvdclient.Resource) error {
	details, err := resource.Details()
	if err != nil {
		return err
	}

	return renderDetails(details)
}
