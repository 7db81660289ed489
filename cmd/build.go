package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/build"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Generate the site once",
	Long: `Generate the site from the source directory into the output directory.

Pages that fail to render are reported and skipped; the command exits with a
non-zero status when any page failed.

Examples:
  quire build                     # Build . into ./out
  quire build --source site -o public
  quire build --clean             # Empty the output directory first
  quire build --no-minify         # Keep generated HTML readable`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().String("source", ".", "Site source directory")
	buildCmd.Flags().StringP("output", "o", "out", "Output directory")
	buildCmd.Flags().Bool("clean", false, "Remove the output directory contents before building")
	buildCmd.Flags().Bool("no-minify", false, "Do not minify generated HTML")
	buildCmd.Flags().Int("workers", 0, "Number of render workers (0 = one per CPU)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{
		"site.source":   "source",
		"site.output":   "output",
		"build.clean":   "clean",
		"build.workers": "workers",
	})

	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noMinify, _ := cmd.Flags().GetBool("no-minify"); noMinify {
		cfg.Build.Minify = false
	}

	generator := build.NewGenerator(generatorOptions(cfg), logger)
	defer generator.Stop()

	report, err := generator.Generate(cmd.Context())
	if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), report, cfg.Site.Output)

	if report.Failed() {
		return fmt.Errorf("%d page(s) failed to render", len(report.Failures))
	}
	return nil
}
