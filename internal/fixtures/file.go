package fixtures

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk catalog shape: a map of category name to cases,
// mirroring how the original sample set was written down.
//
//	sql_injection:
//	  - url: "http://example.com/page?id=1 OR 1=1"
//	    expected: {flagged: true, source: regex}
type fileFormat map[string][]Case

// LoadFile parses a YAML catalog file. Categories are ordered by name so a
// reload always produces the same flattened input sequence.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("fixtures: parse catalog: %w", err)
	}
	if len(ff) == 0 {
		return nil, fmt.Errorf("fixtures: catalog has no categories")
	}

	names := make([]string, 0, len(ff))
	for name := range ff {
		names = append(names, name)
	}
	sort.Strings(names)

	cat := &Catalog{}
	for _, name := range names {
		cases := ff[name]
		for i, tc := range cases {
			if tc.Input == "" {
				return nil, fmt.Errorf("fixtures: category %q case %d has an empty url", name, i)
			}
		}
		cat.Categories = append(cat.Categories, Category{Name: name, Cases: cases})
	}
	return cat, nil
}
