// Package validation provides path and origin checks that keep site builds
// inside their source and output roots.
package validation

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ValidatePath validates a configured directory path such as the site source
// or the output root.
func ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	cleanPath := filepath.ToSlash(filepath.Clean(path))

	// Prevent builds from reading or writing system directories
	restrictedPaths := []string{
		"/etc/",
		"/proc/",
		"/sys/",
		"/dev/",
		"/boot/",
	}

	cleanPathLower := strings.ToLower(cleanPath) + "/"
	for _, restricted := range restrictedPaths {
		if strings.HasPrefix(cleanPathLower, restricted) {
			return fmt.Errorf("access to restricted path denied: %s", path)
		}
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}

// ValidateRelative validates a path that must stay below the directory it is
// resolved against, such as a slug or a partial name.
func ValidateRelative(name string) error {
	if name == "" {
		return fmt.Errorf("path cannot be empty")
	}

	slashed := strings.ReplaceAll(name, "\\", "/")
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(name) ||
		(len(slashed) >= 2 && slashed[1] == ':') {
		return fmt.Errorf("absolute path not allowed: %s", name)
	}

	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return fmt.Errorf("path traversal detected: %s", name)
		}
	}

	if strings.Contains(name, "\x00") {
		return fmt.Errorf("path contains a null byte")
	}

	return nil
}

// WithinRoot joins rel onto root and verifies the result does not escape it.
func WithinRoot(root, rel string) (string, error) {
	if err := ValidateRelative(rel); err != nil {
		return "", err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root %s: %w", root, err)
	}
	joined := filepath.Join(absRoot, filepath.FromSlash(rel))

	relToRoot, err := filepath.Rel(absRoot, joined)
	if err != nil || relToRoot == ".." || strings.HasPrefix(relToRoot, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes root: %s", rel)
	}

	return joined, nil
}

// ValidateOrigin validates a WebSocket origin for CSRF protection. An origin
// matches when it equals an allowed entry or its host does.
func ValidateOrigin(origin string, allowedOrigins []string) error {
	if origin == "" {
		return fmt.Errorf("origin header is required")
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return fmt.Errorf("invalid origin format: %w", err)
	}

	if originURL.Scheme != "http" && originURL.Scheme != "https" {
		return fmt.Errorf("invalid origin scheme '%s': only http and https are allowed", originURL.Scheme)
	}

	for _, allowed := range allowedOrigins {
		if origin == allowed || originURL.Host == allowed {
			return nil
		}
	}

	return fmt.Errorf("origin '%s' is not in allowed origins list", origin)
}

// ValidateFileExtension validates file extensions against an allowlist
func ValidateFileExtension(filename string, allowedExtensions []string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return fmt.Errorf("file must have an extension")
	}

	for _, allowed := range allowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}

	return fmt.Errorf("file extension '%s' is not allowed", ext)
}
