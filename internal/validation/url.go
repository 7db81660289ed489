package validation

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// NormalizeSiteURL checks the base URL a site is published under and returns
// it in canonical form, with a lowercase host and no trailing slash, ready to
// have "/posts/x.html" appended. A path is kept for sites served below the
// domain root. User info, queries and fragments are rejected since they
// cannot prefix a permalink. An empty URL normalizes to "".
func NormalizeSiteURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if i := strings.IndexFunc(raw, unsafeURLRune); i >= 0 {
		r := []rune(raw[i:])[0]
		return "", fmt.Errorf("site URL contains invalid character: %q", r)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid site URL: %w", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return "", fmt.Errorf("invalid site URL scheme %q (only http and https are allowed)", u.Scheme)
	case u.Hostname() == "":
		return "", fmt.Errorf("site URL must have a host")
	case u.User != nil:
		return "", fmt.Errorf("site URL must not contain user info")
	case u.RawQuery != "" || u.ForceQuery:
		return "", fmt.Errorf("site URL must not contain a query")
	case u.Fragment != "" || strings.Contains(raw, "#"):
		return "", fmt.Errorf("site URL must not contain a fragment")
	}

	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = strings.TrimRight(u.RawPath, "/")
	return u.String(), nil
}

// ValidateURL reports whether raw can serve as a site base URL.
func ValidateURL(raw string) error {
	_, err := NormalizeSiteURL(raw)
	return err
}

func unsafeURLRune(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsControl(r) || strings.ContainsRune("`<>\"\\", r)
}
