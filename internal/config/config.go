// Package config provides configuration management for quire using Viper
// for loading from files, environment variables and command-line flags.
//
// The configuration system reads .quire.yml, applies QUIRE_ prefixed
// environment overrides and validates the result. It covers the source and
// output trees, the generation run, the Markdown engine, the development
// server, the file watcher and logging.
package config

import (
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/conneroisu/quire/internal/errors"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "QUIRE"

// FileName is the config file looked up in the working directory.
const FileName = ".quire.yml"

type Config struct {
	Site     SiteConfig     `yaml:"site" mapstructure:"site"`
	Build    BuildConfig    `yaml:"build" mapstructure:"build"`
	Markdown MarkdownConfig `yaml:"markdown" mapstructure:"markdown"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Watch    WatchConfig    `yaml:"watch" mapstructure:"watch"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

type SiteConfig struct {
	Source       string `yaml:"source" mapstructure:"source"`
	Output       string `yaml:"output" mapstructure:"output"`
	URL          string `yaml:"url" mapstructure:"url"`
	Title        string `yaml:"title" mapstructure:"title"`
	Description  string `yaml:"description" mapstructure:"description"`
	PostsPerPage int    `yaml:"posts_per_page" mapstructure:"posts_per_page"`
	MainLayout   string `yaml:"main_layout" mapstructure:"main_layout"`
}

type BuildConfig struct {
	Workers         int  `yaml:"workers" mapstructure:"workers"`
	Minify          bool `yaml:"minify" mapstructure:"minify"`
	JSONCompanions  bool `yaml:"json_companions" mapstructure:"json_companions"`
	Clean           bool `yaml:"clean" mapstructure:"clean"`
	RSSItems        int  `yaml:"rss_items" mapstructure:"rss_items"`
	MaxIncludeDepth int  `yaml:"max_include_depth" mapstructure:"max_include_depth"`
}

type MarkdownConfig struct {
	Engine     string `yaml:"engine" mapstructure:"engine"`
	LineBreaks bool   `yaml:"line_breaks" mapstructure:"line_breaks"`
}

type ServerConfig struct {
	Host           string   `yaml:"host" mapstructure:"host"`
	Port           int      `yaml:"port" mapstructure:"port"`
	LiveReload     bool     `yaml:"live_reload" mapstructure:"live_reload"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" mapstructure:"debounce"`
	Ignore   []string      `yaml:"ignore" mapstructure:"ignore"`
}

type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SetDefaults registers the default of every key on the global viper
// instance.
func SetDefaults() {
	viper.SetDefault("site.source", ".")
	viper.SetDefault("site.output", "out")
	viper.SetDefault("site.url", "")
	viper.SetDefault("site.title", "My Site")
	viper.SetDefault("site.description", "")
	viper.SetDefault("site.posts_per_page", 5)
	viper.SetDefault("site.main_layout", "main.html")

	viper.SetDefault("build.workers", runtime.NumCPU())
	viper.SetDefault("build.minify", true)
	viper.SetDefault("build.json_companions", true)
	viper.SetDefault("build.clean", false)
	viper.SetDefault("build.rss_items", 20)
	viper.SetDefault("build.max_include_depth", 32)

	viper.SetDefault("markdown.engine", "builtin")
	viper.SetDefault("markdown.line_breaks", true)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.live_reload", true)

	viper.SetDefault("watch.debounce", "300ms")
	viper.SetDefault("watch.ignore", []string{".git", "node_modules", "*.swp", "*~"})

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

// Load unmarshals the global viper state into a Config and validates it.
func Load() (*Config, error) {
	SetDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "failed to decode configuration")
	}

	// Env values arrive as one comma separated string
	config.Watch.Ignore = splitList(config.Watch.Ignore)
	config.Server.AllowedOrigins = splitList(config.Server.AllowedOrigins)

	if config.Build.Workers == 0 {
		config.Build.Workers = runtime.NumCPU()
	}
	config.Markdown.Engine = strings.ToLower(strings.TrimSpace(config.Markdown.Engine))
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	if err := validateConfig(&config); err != nil {
		return nil, errors.WrapConfig(err, errors.ErrCodeInvalidConfig, "invalid configuration")
	}

	return &config, nil
}

// Address returns the host:port the development server listens on.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return fmt.Errorf("%s: %s", first.Field, first.Message)
	}
	return nil
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
