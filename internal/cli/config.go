package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfg "teelog/internal/config"
)

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSchemaCmd)
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing settings file")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective settings",
	Long:  "Prints the settings file location and the effective settings after flags are applied.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if fileExists(settingsPath) {
			fmt.Fprintf(out, "# %s\n", settingsPath)
		} else {
			fmt.Fprintf(out, "# %s (not created, showing defaults)\n", settingsPath)
		}
		b, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with the built-in defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if fileExists(settingsPath) && !configForce {
			fmt.Fprintf(out, "• keeping existing settings: %s\n", settingsPath)
			return nil
		}
		if err := cfg.Save(settingsPath, cfg.Defaults()); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ wrote settings: %s\n", settingsPath)
		return nil
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the settings file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := cfg.MarshalSchema(cfg.Schema())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func toJSONString(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}
