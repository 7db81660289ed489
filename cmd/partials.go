package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/content"
)

var partialsCmd = &cobra.Command{
	Use:   "partials",
	Short: "List the include keys of the site",
	Long: `Load the includes directory the way a build does and list every canonical
key with the file it was read from. Two files that map to the same key are
reported as a conflict, which would also abort a build.

Examples:
  quire partials
  quire partials --source site`,
	RunE: runPartials,
}

func init() {
	rootCmd.AddCommand(partialsCmd)

	partialsCmd.Flags().String("source", ".", "Site source directory")
}

func runPartials(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{"site.source": "source"})

	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	table, err := content.LoadPartials(filepath.Join(cfg.Site.Source, build.IncludesDir))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	keys := table.Keys()
	if len(keys) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("no partials found"))
		return nil
	}

	width := 0
	for _, key := range keys {
		if len(key) > width {
			width = len(key)
		}
	}
	for _, key := range keys {
		partial, _, err := table.Lookup(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-*s  %s\n", width, key, mutedStyle.Render(partial.Source))
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d partial(s)", len(keys))))
	return nil
}
