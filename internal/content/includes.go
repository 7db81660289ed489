package content

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/liquid"
	"github.com/conneroisu/quire/internal/validation"
)

// LoadPartials walks dir and builds the frozen partial table. Two files that
// normalize to the same key abort loading with a LoadConflict error. A
// missing directory yields an empty table.
func LoadPartials(dir string) (*liquid.PartialTable, error) {
	table := liquid.NewPartialTable()

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		table.Freeze()
		return table, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if validation.ValidateFileExtension(d.Name(), liquid.PartialExtensions) != nil {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to walk includes").
			WithLocation(dir, 0)
	}

	for _, path := range files {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve partial path").
				WithLocation(path, 0)
		}
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read partial").
				WithLocation(path, 0)
		}
		if err := table.Add(filepath.ToSlash(rel), filepath.ToSlash(path), string(text)); err != nil {
			return nil, err
		}
	}

	table.Freeze()
	return table, nil
}
