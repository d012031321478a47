package allocation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogJSON = `[
  {"name": " Unilag ", "courses": [
    {"name": " Law ", "min_scores": {"aggregate": 300, "English": 60}},
    {"name": "Arts", "max_scores": {"Physics": 80}}
  ]},
  {"name": "UI", "courses": [{"name": "Medicine"}], "website": "ui.edu.ng"}
]`

const catalogYAML = `
- name: Unilag
  courses:
    - name: Law
      min_scores: {aggregate: 300, English: 60}
    - name: Arts
      max_scores: {Physics: 80}
- name: UI
  courses:
    - name: Medicine
`

func TestDecodeCatalogFormatsAgree(t *testing.T) {
	fromJSON, err := DecodeCatalog(strings.NewReader(catalogJSON), CatalogJSON)
	require.NoError(t, err)
	fromYAML, err := DecodeCatalog(strings.NewReader(catalogYAML), CatalogYAML)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
	require.Len(t, fromJSON, 2)
	assert.Equal(t, "Unilag", fromJSON[0].Name)
	assert.Equal(t, "Law", fromJSON[0].Courses[0].Name)
	assert.Equal(t, "Arts", fromJSON[0].Courses[1].Name)
	assert.NotNil(t, fromJSON[1].Courses[0].MinScores)
	assert.NotNil(t, fromJSON[1].Courses[0].MaxScores)
}

func TestDecodeCatalogMalformed(t *testing.T) {
	tests := map[string]string{
		"not a list":       `{"name": "x"}`,
		"bad bound":        `[{"name": "U", "courses": [{"name": "Law", "min_scores": {"English": "high"}}]}]`,
		"truncated":        `[{"name": "U"`,
		"courses not list": `[{"name": "U", "courses": "Law"}]`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeCatalog(strings.NewReader(in), CatalogJSON)
			assert.ErrorIs(t, err, ErrMalformedCatalog)
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "universities.yml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	cat, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Len(t, cat, 2)

	_, err = LoadCatalogFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrMalformedCatalog)
}

func TestCatalogFormatFromPath(t *testing.T) {
	assert.Equal(t, CatalogYAML, CatalogFormatFromPath("a/b.YAML"))
	assert.Equal(t, CatalogJSON, CatalogFormatFromPath("universities.json"))
	assert.Equal(t, CatalogJSON, CatalogFormatFromPath("catalog"))
}
