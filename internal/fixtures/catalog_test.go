package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Shape(t *testing.T) {
	cat := Default()

	require.Len(t, cat.Categories, 5)
	assert.Equal(t, 21, cat.Len())

	names := make([]string, 0, len(cat.Categories))
	for _, c := range cat.Categories {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"whitelist", "blacklist", "regex attacks", "ml tests", "edge cases"}, names)
}

func TestFlatten_PreservesOrder(t *testing.T) {
	cat := Default()
	inputs := cat.Flatten()

	require.Len(t, inputs, 21)
	assert.Equal(t, "http://example.com/", inputs[0])
	assert.Equal(t, "https://malicious-site.com/evil-page", inputs[5], "blacklist follows whitelist")
	assert.Equal(t, "https://malicious-site.com/evil-page", inputs[20], "duplicate appears again in edge cases")
}

func TestLookup_ExactMatch(t *testing.T) {
	cat := Default()

	exp, ok := cat.Lookup("<script>alert(1)</script>")
	require.True(t, ok)
	assert.True(t, exp.Flagged)
	assert.Equal(t, SourceRegex, exp.Source)

	exp, ok = cat.Lookup("http://example.com/")
	require.True(t, ok)
	assert.False(t, exp.Flagged)
	assert.Equal(t, SourceWhitelist, exp.Source)

	_, ok = cat.Lookup("http://EXAMPLE.com/")
	assert.False(t, ok, "lookup is case-sensitive")

	_, ok = cat.Lookup("http://never-in-the-catalog.example/")
	assert.False(t, ok)
}

func TestLookup_DuplicateInputFirstOccurrenceWins(t *testing.T) {
	cat := Default()

	// Present in both blacklist (flagged via blacklist) and edge cases
	// (flagged via ML); the blacklist entry comes first.
	exp, ok := cat.Lookup("https://malicious-site.com/evil-page")
	require.True(t, ok)
	assert.True(t, exp.Flagged)
	assert.Equal(t, SourceBlacklist, exp.Source)
}

func TestParse_CatalogFile(t *testing.T) {
	data := []byte(`
sql_injection:
  - url: "http://example.com/page?id=1 OR 1=1"
    expected: {flagged: true, source: regex}
  - url: "http://example.com/ok"
    expected: {flagged: false, source: whitelist}
xss:
  - url: "<script>alert(1)</script>"
    expected: {flagged: true, source: regex}
`)

	cat, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, cat.Categories, 2)

	// Categories sort by name for a deterministic flatten order.
	assert.Equal(t, "sql_injection", cat.Categories[0].Name)
	assert.Equal(t, "xss", cat.Categories[1].Name)
	assert.Equal(t, 3, cat.Len())

	exp, ok := cat.Lookup("http://example.com/page?id=1 OR 1=1")
	require.True(t, ok)
	assert.True(t, exp.Flagged)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{}`))
	assert.Error(t, err, "empty catalog is rejected")

	_, err = Parse([]byte("cat:\n  - expected: {flagged: true}\n"))
	assert.Error(t, err, "case without a url is rejected")

	_, err = Parse([]byte("not yaml: [unbalanced"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
smoke:
  - url: "http://example.com/"
    expected: {flagged: false, source: whitelist}
`), 0644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
