package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/validation"
	"github.com/conneroisu/quire/internal/value"
)

// ContentExtensions are the file types read as posts and pages.
var ContentExtensions = []string{".md", ".liquid", ".html"}

// ReadItem reads one content file and adds the derived keys.
func ReadItem(path string) (*Item, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read content file").
			WithLocation(path, 0)
	}

	vars, body, err := ParseFrontMatter(src)
	if err != nil {
		var qe *errors.QuireError
		if errors.As(err, &qe) {
			return nil, qe.WithLocation(path, 0)
		}
		return nil, err
	}

	name := filepath.Base(path)
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	// "about.html.liquid" is the page "about"
	if ext == ".liquid" {
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	}

	if strings.TrimSpace(vars.GetString(KeySlug)) == "" {
		vars.SetString(KeySlug, stem)
	}
	slug := vars.GetString(KeySlug)
	if err := validation.ValidateRelative(slug); err != nil {
		return nil, errors.NewSecurityError(errors.ErrCodeInvalidPath, "invalid slug: "+err.Error()).
			WithLocation(path, 0)
	}

	vars.SetString(KeyFileType, strings.TrimPrefix(ext, "."))
	vars.SetString(KeySourceFileName, name)
	vars.SetString(KeyContent, body)
	if strings.TrimSpace(vars.GetString(KeyTitle)) == "" {
		vars.SetString(KeyTitle, TitleFromSlug(slug))
	}

	return &Item{Path: path, Vars: vars}, nil
}

// ReadCollection reads every content file directly inside dir and returns
// them most recent first. A missing directory yields an empty collection.
func ReadCollection(dir string) (Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Collection{}, nil
		}
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read content directory").
			WithLocation(dir, 0)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if validation.ValidateFileExtension(entry.Name(), ContentExtensions) != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	col := make(Collection, 0, len(names))
	for _, name := range names {
		it, err := ReadItem(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		col = append(col, it)
	}
	col.Sort()
	return col, nil
}

// ReadSiteConfig reads the front matter of the site config document. A
// missing file yields an empty mapping.
func ReadSiteConfig(path string) (*value.Mapping, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return value.NewMapping(), nil
		}
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read site config").
			WithLocation(path, 0)
	}
	vars, _, err := ParseFrontMatter(src)
	if err != nil {
		return nil, err
	}
	return vars, nil
}

// TitleFromSlug derives a display title from a slug: "hello-world" becomes
// "Hello World".
func TitleFromSlug(slug string) string {
	words := strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}
