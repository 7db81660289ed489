package content

import (
	"bytes"

	"github.com/adrg/frontmatter"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// frontMatterFormats lists the supported delimiters: "---" for YAML and
// "+++" for TOML.
var frontMatterFormats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
}

// ParseFrontMatter splits src into its front matter mapping and body. A
// document without front matter yields an empty mapping and the whole text.
func ParseFrontMatter(src []byte) (*value.Mapping, string, error) {
	var fm map[string]interface{}
	body, err := frontmatter.Parse(bytes.NewReader(src), &fm, frontMatterFormats...)
	if err != nil {
		return nil, "", errors.NewIOError(errors.ErrCodeFrontMatter, "invalid front matter", err)
	}

	vars := value.NewMapping()
	if fm != nil {
		if m := value.From(fm).Mapping(); m != nil {
			vars = m
		}
	}
	return vars, string(body), nil
}
