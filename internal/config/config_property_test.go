//go:build property
// +build property

package config

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func validConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Source:       ".",
			Output:       "out",
			PostsPerPage: 5,
			MainLayout:   "main.html",
		},
		Build: BuildConfig{
			Workers:         4,
			RSSItems:        20,
			MaxIncludeDepth: 32,
		},
		Markdown: MarkdownConfig{Engine: "builtin"},
		Server:   ServerConfig{Host: "localhost", Port: 8080},
		Watch:    WatchConfig{Debounce: 300 * time.Millisecond},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

func TestConfigurationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("ports inside 0-65535 are accepted", prop.ForAll(
		func(port int) bool {
			cfg := validConfig()
			cfg.Server.Port = port
			return validateConfig(cfg) == nil
		},
		gen.IntRange(0, 65535),
	))

	properties.Property("ports outside 0-65535 are rejected", prop.ForAll(
		func(port int, high bool) bool {
			cfg := validConfig()
			if high {
				cfg.Server.Port = 65536 + port
			} else {
				cfg.Server.Port = -1 - port
			}
			return validateConfig(cfg) != nil
		},
		gen.IntRange(0, 1<<20),
		gen.Bool(),
	))

	properties.Property("include depth is bounded", prop.ForAll(
		func(depth int) bool {
			cfg := validConfig()
			cfg.Build.MaxIncludeDepth = depth
			ok := validateConfig(cfg) == nil
			return ok == (depth >= 1 && depth <= MaxIncludeDepthLimit)
		},
		gen.IntRange(-10, 2*MaxIncludeDepthLimit),
	))

	properties.Property("main layout never escapes the layouts directory", prop.ForAll(
		func(name string) bool {
			cfg := validConfig()
			cfg.Site.MainLayout = "../" + name
			return validateConfig(cfg) != nil
		},
		gen.AlphaString(),
	))

	properties.Property("validation reports every error it finds", prop.ForAll(
		func(port, depth int) bool {
			cfg := validConfig()
			cfg.Server.Port = -port
			cfg.Build.MaxIncludeDepth = -depth
			result := ValidateConfigWithDetails(cfg)
			return len(result.Errors) == 2 && !result.Valid
		},
		gen.IntRange(1, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
