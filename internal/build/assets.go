package build

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
)

// copyAssets copies <source>/assets into <output>/assets. Files and
// directories whose names start with "_" or "." are skipped. Stylesheets and
// scripts are minified when the writer minifies. It returns the
// number of files copied or already up to date.
func copyAssets(ctx context.Context, source string, w *Writer) (int, error) {
	dir := filepath.Join(source, AssetsDir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	count := 0
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != dir && skipAsset(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read asset").WithLocation(p, 0)
		}
		if _, err := w.WriteAsset(path.Join(AssetsDir, filepath.ToSlash(rel)), data); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		var qe *errors.QuireError
		if errors.As(err, &qe) {
			return count, qe
		}
		return count, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to copy assets").WithLocation(dir, 0)
	}
	return count, nil
}

func skipAsset(name string) bool {
	return strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")
}
