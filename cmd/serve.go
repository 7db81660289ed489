package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/server"
	"github.com/conneroisu/quire/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Build, serve and rebuild the site on change",
	Long: `Build the site, serve the output directory over HTTP and rebuild whenever
the source changes. Open pages reload automatically after each rebuild, and
show an error overlay while pages fail to render.

Examples:
  quire serve                     # http://localhost:8080
  quire serve -p 3000 --host 0.0.0.0
  quire serve --no-reload         # Plain static serving`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "Port to serve on")
	serveCmd.Flags().String("host", "localhost", "Host to bind to")
	serveCmd.Flags().Bool("no-reload", false, "Disable live reload")
	serveCmd.Flags().String("source", ".", "Site source directory")
	serveCmd.Flags().StringP("output", "o", "out", "Output directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	bindFlags(cmd.Flags(), map[string]string{
		"server.port": "port",
		"server.host": "host",
		"site.source": "source",
		"site.output": "output",
	})

	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noReload, _ := cmd.Flags().GetBool("no-reload"); noReload {
		cfg.Server.LiveReload = false
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	generator := build.NewGenerator(generatorOptions(cfg), logger)
	defer generator.Stop()

	srv := server.New(server.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Root:           cfg.Site.Output,
		LiveReload:     cfg.Server.LiveReload,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, logger)

	report, err := generator.Generate(ctx)
	if err != nil {
		return err
	}
	printSummary(out, report, cfg.Site.Output)
	srv.BuildFinished(report, nil)

	fileWatcher, err := newSourceWatcher(cfg, logger, func(events []watcher.ChangeEvent) error {
		report, err := generator.Generate(ctx)
		printRebuild(out, report, err)
		srv.BuildFinished(report, err)
		return err
	})
	if err != nil {
		return err
	}
	defer fileWatcher.Stop()

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	fmt.Fprintf(out, "Serving %s at http://%s (Press Ctrl+C to stop)\n", cfg.Site.Output, srv.Address())
	return srv.Start(ctx)
}
