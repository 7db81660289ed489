package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/config"
	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Rebuild the site whenever the source changes",
	Long: `Build the site, then watch the source directory and rebuild after every
burst of changes. Nothing is served; use "quire serve" for that.

Examples:
  quire watch
  quire watch --source site -o public`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("source", ".", "Site source directory")
	watchCmd.Flags().StringP("output", "o", "out", "Output directory")
}

func runWatch(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{
		"site.source": "source",
		"site.output": "output",
	})

	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	generator := build.NewGenerator(generatorOptions(cfg), logger)
	defer generator.Stop()

	report, err := generator.Generate(ctx)
	if err != nil {
		return err
	}
	printSummary(out, report, cfg.Site.Output)

	fileWatcher, err := newSourceWatcher(cfg, logger, func(events []watcher.ChangeEvent) error {
		report, err := generator.Generate(ctx)
		printRebuild(out, report, err)
		return err
	})
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "Watching %s for changes (Press Ctrl+C to stop)\n", cfg.Site.Source)
	<-ctx.Done()
	fmt.Fprintln(out, "Stopping file watcher")
	return nil
}

// newSourceWatcher watches the source tree, skipping ignored names and the
// output directory.
func newSourceWatcher(cfg *config.Config, logger logging.Logger, handler watcher.ChangeHandler) (*watcher.FileWatcher, error) {
	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	fileWatcher.AddFilter(watcher.IgnoreFilter(cfg.Watch.Ignore))
	fileWatcher.AddFilter(watcher.OutsideFilter(cfg.Site.Output))
	fileWatcher.AddHandler(handler)

	if err := fileWatcher.AddRecursive(cfg.Site.Source); err != nil {
		fileWatcher.Stop()
		return nil, fmt.Errorf("failed to watch %s: %w", cfg.Site.Source, err)
	}
	return fileWatcher, nil
}
