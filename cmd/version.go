package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version, commit, build time, Go version and platform of
this quire binary.

Examples:
  quire version
  quire version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringP("format", "f", "text", "Output format (text, json)")
	versionCmd.Flags().Bool("short", false, "Show the short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	short, _ := cmd.Flags().GetBool("short")
	info := version.Get()
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode version: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "text":
		if short {
			fmt.Fprintln(out, info.Short())
		} else {
			fmt.Fprintln(out, info.String())
		}
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
	}
	return nil
}
