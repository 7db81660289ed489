package build

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/validation"
)

// Writer places generated files under the output root. Every path is checked
// against the root before anything touches the disk.
type Writer struct {
	root   string
	minify bool
	hashes *HashProvider
	assets *minify.M
}

// NewWriter creates a writer for root, creating the directory when needed.
// hashes may be shared across runs; nil gives the writer its own.
func NewWriter(root string, minify bool, hashes *HashProvider) (*Writer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve output directory").
			WithLocation(root, 0)
	}
	if err := validation.ValidatePath(abs); err != nil {
		return nil, errors.NewSecurityError(errors.ErrCodeInvalidPath, "unsafe output directory: "+err.Error()).
			WithLocation(root, 0)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create output directory").
			WithLocation(abs, 0)
	}
	if hashes == nil {
		hashes = NewHashProvider()
	}
	w := &Writer{root: abs, minify: minify, hashes: hashes}
	if minify {
		w.assets = newAssetMinifier()
	}
	return w, nil
}

// assetTypes maps the asset extensions that are minified to their media type.
var assetTypes = map[string]string{
	".css": "text/css",
	".js":  "application/javascript",
	".mjs": "application/javascript",
}

func newAssetMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return m
}

// Root returns the absolute output root.
func (w *Writer) Root() string { return w.root }

// Clean removes everything inside the output root.
func (w *Writer) Clean() error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read output directory").
			WithLocation(w.root, 0)
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(w.root, entry.Name())); err != nil {
			return errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to clean output directory").
				WithLocation(w.root, 0)
		}
	}
	return nil
}

// WriteHTML writes an HTML document, minified when the writer is configured
// to. It reports whether the file changed.
func (w *Writer) WriteHTML(rel, html string) (bool, error) {
	if w.minify {
		html = MinifyHTML(html)
	}
	return w.WriteFile(rel, []byte(html))
}

// WriteAsset writes a static asset. Stylesheets and scripts are minified when
// the writer is configured to; one that fails to parse is written unchanged.
func (w *Writer) WriteAsset(rel string, data []byte) (bool, error) {
	if w.assets != nil {
		if mediatype, ok := assetTypes[strings.ToLower(filepath.Ext(rel))]; ok {
			if out, err := w.assets.Bytes(mediatype, data); err == nil {
				data = out
			}
		}
	}
	return w.WriteFile(rel, data)
}

// WriteFile writes data to rel under the root. A file that already holds the
// same bytes is left alone and false is returned.
func (w *Writer) WriteFile(rel string, data []byte) (bool, error) {
	path, err := validation.WithinRoot(w.root, rel)
	if err != nil {
		return false, errors.NewSecurityError(errors.ErrCodePathTraversal, err.Error()).
			WithLocation(rel, 0)
	}

	if w.hashes.Unchanged(path, data) {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to create directory").
			WithLocation(path, 0)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, errors.WrapIO(err, errors.ErrCodeWriteFailed, "failed to write output").
			WithLocation(path, 0)
	}
	w.hashes.Record(path, data)
	return true, nil
}
