package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/validation"
)

// MarkdownEngines are the accepted markdown.engine values.
var MarkdownEngines = []string{"builtin", "goldmark"}

// LogFormats are the accepted log.format values.
var LogFormats = []string{"text", "json"}

// MaxIncludeDepthLimit bounds build.max_include_depth.
const MaxIncludeDepthLimit = 256

var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

func (vr *ValidationResult) addError(field string, value interface{}, message string, suggestions ...string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{
		Field: field, Value: value, Message: message, Suggestions: suggestions,
	})
}

func (vr *ValidationResult) addWarning(field string, value interface{}, message string, suggestions ...string) {
	vr.Warnings = append(vr.Warnings, ValidationError{
		Field: field, Value: value, Message: message, Suggestions: suggestions,
	})
}

// ValidateConfigWithDetails performs comprehensive validation with detailed feedback
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateSiteConfigDetails(&config.Site, result)
	validateBuildConfigDetails(&config.Build, result)
	validateMarkdownConfigDetails(&config.Markdown, result)
	validateServerConfigDetails(&config.Server, result)
	validateWatchConfigDetails(&config.Watch, result)
	validateLogConfigDetails(&config.Log, result)

	return result
}

func validateSiteConfigDetails(config *SiteConfig, result *ValidationResult) {
	dirs := []struct{ field, path string }{
		{"site.source", config.Source},
		{"site.output", config.Output},
	}
	for _, dir := range dirs {
		if err := validation.ValidatePath(dir.path); err != nil {
			result.addError(dir.field, dir.path, err.Error(),
				"Use a directory inside your project, such as '.' or 'out'")
		}
	}

	if config.Source != "" && config.Output != "" &&
		filepath.Clean(config.Source) == filepath.Clean(config.Output) {
		result.addError("site.output", config.Output, "output directory must differ from the source directory",
			"Use a dedicated output directory such as 'out' or 'public'")
	}

	if config.Source != "" && !pathExists(config.Source) {
		result.addWarning("site.source", config.Source, "source directory does not exist")
	}

	if err := validation.ValidateURL(config.URL); err != nil {
		result.addError("site.url", config.URL, err.Error(),
			"Use an absolute http or https URL such as 'https://example.com'")
	}

	if config.PostsPerPage < 1 {
		result.addError("site.posts_per_page", config.PostsPerPage, "must be at least 1")
	}

	if err := validation.ValidateRelative(config.MainLayout); err != nil {
		result.addError("site.main_layout", config.MainLayout, err.Error(),
			"Name a file inside the layouts directory, such as 'main.html'")
	}
}

func validateBuildConfigDetails(config *BuildConfig, result *ValidationResult) {
	if config.Workers < 0 {
		result.addError("build.workers", config.Workers, "cannot be negative")
	} else if config.Workers > 256 {
		result.addWarning("build.workers", config.Workers, "unusually high worker count",
			"The default of one worker per CPU is usually fastest")
	}

	if config.MaxIncludeDepth < 1 || config.MaxIncludeDepth > MaxIncludeDepthLimit {
		result.addError("build.max_include_depth", config.MaxIncludeDepth,
			fmt.Sprintf("must be between 1 and %d", MaxIncludeDepthLimit))
	}

	if config.RSSItems < 0 {
		result.addError("build.rss_items", config.RSSItems, "cannot be negative")
	}
}

func validateMarkdownConfigDetails(config *MarkdownConfig, result *ValidationResult) {
	if !contains(MarkdownEngines, config.Engine) {
		result.addError("markdown.engine", config.Engine, "unknown markdown engine",
			"Available engines: "+strings.Join(MarkdownEngines, ", "))
	}
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	// Port 0 lets the system assign one
	if config.Port < 0 || config.Port > 65535 {
		result.addError("server.port", config.Port,
			fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			"Use a port between 1024-65535 for non-privileged access",
			"Common development ports: 3000, 8080, 8000, 3001",
		)
	} else if config.Port > 0 && config.Port < 1024 {
		result.addWarning("server.port", config.Port, "port below 1024 requires elevated privileges",
			"Consider using a port above 1024 for development")
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.addError("server.host", config.Host, err.Error(),
				"Use 'localhost' for local development",
				"Use '0.0.0.0' to bind to all interfaces",
			)
		}
	}

	for _, origin := range config.AllowedOrigins {
		if err := validation.ValidateURL(origin); err != nil && validateHostname(origin) != nil {
			result.addWarning("server.allowed_origins", origin, "origin is neither a URL nor a host")
		}
	}
}

func validateWatchConfigDetails(config *WatchConfig, result *ValidationResult) {
	if config.Debounce < 0 {
		result.addError("watch.debounce", config.Debounce, "cannot be negative")
	} else if config.Debounce < 50*time.Millisecond {
		result.addWarning("watch.debounce", config.Debounce, "very short debounce may rebuild once per saved file",
			"Editors often write several files per save; 300ms is a good default")
	}

	for _, pattern := range config.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			result.addError("watch.ignore", pattern, "invalid glob pattern: "+err.Error())
		}
	}
}

func validateLogConfigDetails(config *LogConfig, result *ValidationResult) {
	if _, err := logging.ParseLevel(config.Level); err != nil {
		result.addError("log.level", config.Level, err.Error(),
			"Available levels: debug, info, warn, error")
	}
	if !contains(LogFormats, config.Format) {
		result.addError("log.format", config.Format, "unknown log format",
			"Available formats: "+strings.Join(LogFormats, ", "))
	}
}

// Helper validation functions

func validateHostname(host string) error {
	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
	for _, char := range dangerousChars {
		if strings.Contains(host, char) {
			return fmt.Errorf("contains dangerous character: %s", char)
		}
	}

	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}

	if !hostnameRegex.MatchString(host) {
		return fmt.Errorf("invalid hostname format")
	}

	return nil
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
