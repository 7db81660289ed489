package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// LoadData decodes every *.json file directly inside dir into a mapping keyed
// by file stem, exposed to templates as data.<stem>. A file that fails to
// decode is skipped and reported as a diagnostic.
func LoadData(dir string) (*value.Mapping, []errors.Diagnostic, error) {
	data := value.NewMapping()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return data, nil, nil
		}
		return nil, nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read data directory").
			WithLocation(dir, 0)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var diags []errors.Diagnostic
	for _, name := range names {
		path := filepath.Join(dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read data file").
				WithLocation(path, 0)
		}

		var decoded interface{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			diags = append(diags, errors.Diagnostic{
				Severity: errors.SeverityWarning,
				Code:     errors.ErrCodeInvalidData,
				Message:  "skipping data file: " + err.Error(),
				Page:     path,
			})
			continue
		}
		data.Set(strings.TrimSuffix(name, filepath.Ext(name)), value.From(decoded))
	}
	return data, diags, nil
}
