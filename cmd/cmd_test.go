package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/config"
	"github.com/conneroisu/quire/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newSite(t *testing.T) string {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "config.md"), "---\ntitle: Notebook\n---\n")
	writeFile(t, filepath.Join(src, "layouts", "main.html"), "<html><body>{{ body }}</body></html>")
	writeFile(t, filepath.Join(src, "includes", "nav.liquid"), "<nav></nav>")
	writeFile(t, filepath.Join(src, "includes", "cards", "post.liquid"), "<div>{{ post.title }}</div>")
	writeFile(t, filepath.Join(src, "posts", "hello.md"), "---\ndate: 2024-05-01\n---\nHello *there*")
	writeFile(t, filepath.Join(src, "pages", "index.liquid"), "{% render 'nav' %}<h1>{{ site_title }}</h1>")
	return src
}

// executeCommand runs the root command with args, resetting the global
// state cobra and viper keep between runs.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	cfgFile = ""

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	src := newSite(t)
	out := filepath.Join(t.TempDir(), "public")

	output, err := executeCommand(t, "build", "--source", src, "-o", out, "--no-minify", "--workers", "2")
	require.NoError(t, err)

	assert.Contains(t, output, "Build succeeded")
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.FileExists(t, filepath.Join(out, "posts", "hello.html"))
	assert.FileExists(t, filepath.Join(out, "feed.xml"))

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "<nav></nav><h1>Notebook</h1>")
}

func TestBuildCommandFailsOnBrokenPage(t *testing.T) {
	src := newSite(t)
	writeFile(t, filepath.Join(src, "pages", "broken.liquid"), "{% for x in posts %}never closed")
	out := filepath.Join(t.TempDir(), "public")

	output, err := executeCommand(t, "build", "--source", src, "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 page(s) failed")
	assert.Contains(t, output, "broken")
	assert.FileExists(t, filepath.Join(out, "index.html"), "healthy pages are still written")
}

func TestBuildCommandRejectsInvalidConfig(t *testing.T) {
	src := newSite(t)
	_, err := executeCommand(t, "build", "--source", src, "-o", src)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBuildCommandReadsConfigFile(t *testing.T) {
	src := newSite(t)
	out := filepath.Join(t.TempDir(), "public")
	cfg := filepath.Join(t.TempDir(), config.FileName)
	writeFile(t, cfg, "site:\n  source: "+src+"\n  output: "+out+"\nbuild:\n  json_companions: false\n")

	_, err := executeCommand(t, "build", "--config", cfg)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "index.html"))
	assert.NoFileExists(t, filepath.Join(out, "index.json"))
}

func TestBuildCommandEnvironmentOverride(t *testing.T) {
	src := newSite(t)
	out := filepath.Join(t.TempDir(), "from-env")
	t.Setenv("QUIRE_SITE_SOURCE", src)
	t.Setenv("QUIRE_SITE_OUTPUT", out)

	_, err := executeCommand(t, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(out, "index.html"))
}

func TestInitCommandCreatesBuildableSite(t *testing.T) {
	src := filepath.Join(t.TempDir(), "field-notes")

	output, err := executeCommand(t, "init", src, "--author", "Ada")
	require.NoError(t, err)
	assert.Contains(t, output, "created")
	assert.FileExists(t, filepath.Join(src, "includes", "pagination_layout.liquid"))

	out := filepath.Join(t.TempDir(), "public")
	output, err = executeCommand(t, "build", "--source", src, "-o", out, "--no-minify")
	require.NoError(t, err)
	assert.Contains(t, output, "Build succeeded")

	index, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Welcome to Field Notes")
	assert.Contains(t, string(index), `<a href="/about.html">About</a>`)
	assert.FileExists(t, filepath.Join(out, "posts", "welcome.html"))
	assert.FileExists(t, filepath.Join(out, "page1.html"))
	assert.FileExists(t, filepath.Join(out, "category", "general", "page1.html"))

	_, err = executeCommand(t, "init", src)
	require.Error(t, err, "existing files are not overwritten")
}

func TestInitCommandUnknownTemplate(t *testing.T) {
	_, err := executeCommand(t, "init", t.TempDir(), "--template", "portfolio")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "portfolio")
}

func TestPartialsCommand(t *testing.T) {
	src := newSite(t)

	output, err := executeCommand(t, "partials", "--source", src)
	require.NoError(t, err)
	assert.Contains(t, output, "cards/post")
	assert.Contains(t, output, "nav")
	assert.Contains(t, output, "2 partial(s)")
}

func TestPartialsCommandReportsConflict(t *testing.T) {
	src := newSite(t)
	writeFile(t, filepath.Join(src, "includes", "nav.html"), "<nav>other</nav>")

	_, err := executeCommand(t, "partials", "--source", src)
	require.Error(t, err)
	assert.True(t, errors.IsLoadConflict(err))
}

func TestVersionCommand(t *testing.T) {
	output, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "quire ")
	assert.Contains(t, output, "Go: ")

	output, err = executeCommand(t, "version", "--format", "json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &info))
	assert.Contains(t, info, "version")
	assert.Contains(t, info, "platform")

	_, err = executeCommand(t, "version", "--format", "yaml")
	assert.Error(t, err)
}

func TestGeneratorOptions(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Site.URL = "https://example.com"
	cfg.Build.MaxIncludeDepth = 8

	opts := generatorOptions(cfg)
	assert.Equal(t, cfg.Site.Source, opts.Source)
	assert.Equal(t, cfg.Site.Output, opts.Output)
	assert.Equal(t, "https://example.com", opts.SiteURL)
	assert.Equal(t, 8, opts.MaxIncludeDepth)
	assert.Equal(t, cfg.Markdown.Engine, opts.MarkdownEngine)
	assert.Equal(t, cfg.Build.Minify, opts.Minify)
}
