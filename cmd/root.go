// Package cmd provides the command-line interface for quire.
//
// Configuration is read from several sources with clear precedence:
//  1. Command-line flags (--source, --port, ...), highest priority
//  2. Environment variables following QUIRE_<SECTION>_<OPTION>, such as
//     QUIRE_SITE_OUTPUT or QUIRE_SERVER_PORT
//  3. The configuration file: --config, then QUIRE_CONFIG_FILE, then
//     .quire.yml in the working directory
//  4. Built-in defaults
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/quire/internal/build"
	"github.com/conneroisu/quire/internal/config"
	"github.com/conneroisu/quire/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "A static site generator with Liquid-style templates",
	Long: `quire turns a directory of Markdown and Liquid files into a static site.

Posts, pages, layouts and includes are rendered through a template pipeline
with conditionals, loops, assignments and partials, then written with
pagination, category pages, an RSS feed and JSON companions.

Quick Start:
  quire build                     Generate the site into ./out
  quire serve                     Build, serve and rebuild on change
  quire watch                     Rebuild on change without serving
  quire partials                  List the include keys of the site`,
	SilenceUsage: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context so long-running commands shut down cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .quire.yml, can also use QUIRE_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
}

// initConfig points viper at the config file and environment. A missing
// config file is not an error; defaults apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(config.EnvPrefix + "_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".yml"))
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindFlags binds command flags to config keys. Binding happens per run so
// the bindings survive a viper reset.
func bindFlags(flags *pflag.FlagSet, bindings map[string]string) {
	for key, name := range bindings {
		if flag := flags.Lookup(name); flag != nil {
			_ = viper.BindPFlag(key, flag)
		}
	}
}

// loadConfig loads the configuration and builds the logger it describes.
func loadConfig() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	return cfg, logger, nil
}

// generatorOptions maps the configuration onto a generation run.
func generatorOptions(cfg *config.Config) build.Options {
	return build.Options{
		Source:          cfg.Site.Source,
		Output:          cfg.Site.Output,
		SiteURL:         cfg.Site.URL,
		SiteTitle:       cfg.Site.Title,
		SiteDescription: cfg.Site.Description,
		PostsPerPage:    cfg.Site.PostsPerPage,
		MainLayout:      cfg.Site.MainLayout,
		Workers:         cfg.Build.Workers,
		Minify:          cfg.Build.Minify,
		JSONCompanions:  cfg.Build.JSONCompanions,
		Clean:           cfg.Build.Clean,
		RSSItems:        cfg.Build.RSSItems,
		MaxIncludeDepth: cfg.Build.MaxIncludeDepth,
		MarkdownEngine:  cfg.Markdown.Engine,
		LineBreaks:      cfg.Markdown.LineBreaks,
	}
}
