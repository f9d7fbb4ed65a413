// Package main provides the editflow CLI: an interactive terminal host for
// the section editor. It seeds a session from a JSON entity file, walks the
// wizard, and on save prints the assembled request body instead of calling
// a real backend, which makes it useful for trying out section definitions.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	editflow "github.com/goliatone/go-editflow"
	"github.com/goliatone/go-editflow/pkg/lookup"
	"github.com/goliatone/go-editflow/pkg/payload"
	"github.com/goliatone/go-editflow/pkg/registry"
	"github.com/goliatone/go-editflow/pkg/tui"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "editflow",
	Short: "Interactive multi-section profile editor",
	Long: `editflow walks a structured entity through topic-scoped editing
sections with field and section validation, then prints the assembled
update payload. Sections default to the built-in member editor and can be
replaced with a YAML definition.`,
	RunE: runEdit,
}

func init() {
	flags := rootCmd.Flags()
	flags.String("entity", "", "path to a JSON file holding the entity to edit")
	flags.String("sections", "", "path to a YAML section definition (default: built-in member editor)")
	flags.String("output", "json", "payload encoding to print: json or multipart")

	// Every flag is also available as EDITFLOW_* in the environment.
	viper.SetEnvPrefix("editflow")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(flags)
}

func runEdit(cmd *cobra.Command, _ []string) error {
	entity, err := loadEntity(viper.GetString("entity"))
	if err != nil {
		return err
	}

	opts := []editflow.Option{
		editflow.WithRegionProvider(lookup.NewStatic(demoRegions)),
		editflow.WithNotifier(editflow.NotifierFunc(func(msg string) {
			fmt.Fprintln(cmd.OutOrStdout(), msg)
		})),
		editflow.WithUpdater(printUpdater(cmd, viper.GetString("output"))),
	}
	if sectionsPath := viper.GetString("sections"); sectionsPath != "" {
		data, err := os.ReadFile(sectionsPath)
		if err != nil {
			return fmt.Errorf("read sections: %w", err)
		}
		reg, err := registry.ParseYAML(data)
		if err != nil {
			return err
		}
		opts = append(opts, editflow.WithRegistry(reg))
	}

	session, err := editflow.NewSession(entity, opts...)
	if err != nil {
		return err
	}

	wizard := tui.NewWizard(session)
	return wizard.Run(cmd.Context())
}

func loadEntity(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entity: %w", err)
	}
	var entity map[string]any
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("parse entity: %w", err)
	}
	return entity, nil
}

// printUpdater stands in for the real update collaborator: it prints the
// assembled body and reports success.
func printUpdater(cmd *cobra.Command, output string) editflow.UpdaterFunc {
	return func(_ context.Context, body payload.RequestBody) (map[string]any, error) {
		out := cmd.OutOrStdout()
		if output == "multipart" || body.HasFiles() {
			contentType, raw, err := body.EncodeMultipart()
			if err != nil {
				return nil, err
			}
			fmt.Fprintf(out, "Content-Type: %s\n", contentType)
			fmt.Fprintf(out, "%d bytes\n", len(raw))
			return nil, nil
		}
		data, err := body.EncodeJSON()
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(out, string(data))
		return nil, nil
	}
}

var demoRegions = map[string][]string{
	"Karnataka":   {"Bengaluru Urban", "Mysuru", "Mangaluru"},
	"Maharashtra": {"Mumbai", "Pune", "Nagpur"},
	"Tamil Nadu":  {"Chennai", "Coimbatore", "Madurai"},
}
