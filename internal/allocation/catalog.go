package allocation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Course is one entry requirement set. A missing bound means no constraint.
type Course struct {
	Name      string             `json:"name" yaml:"name"`
	MinScores map[string]float64 `json:"min_scores" yaml:"min_scores"`
	MaxScores map[string]float64 `json:"max_scores" yaml:"max_scores"`
}

// University lists its courses in precedence order.
type University struct {
	Name    string   `json:"name" yaml:"name"`
	Courses []Course `json:"courses" yaml:"courses"`
}

// Catalog is the ordered list of universities. Order is the tie-break used by
// both the choice scan and the fallback scan.
type Catalog []University

type CatalogFormat string

const (
	CatalogJSON CatalogFormat = "json"
	CatalogYAML CatalogFormat = "yaml"
)

// CatalogFormatFromPath picks the decoder from a file extension, defaulting to JSON.
func CatalogFormatFromPath(path string) CatalogFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return CatalogYAML
	default:
		return CatalogJSON
	}
}

// LoadCatalogFile reads and decodes a catalog file.
func LoadCatalogFile(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	defer f.Close()
	return DecodeCatalog(f, CatalogFormatFromPath(path))
}

// DecodeCatalog decodes a catalog and normalizes names and bound maps.
func DecodeCatalog(r io.Reader, format CatalogFormat) (Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrMalformedCatalog, err)
	}
	var cat Catalog
	switch format {
	case CatalogYAML:
		err = yaml.Unmarshal(data, &cat)
	case CatalogJSON, "":
		err = json.NewDecoder(bytes.NewReader(data)).Decode(&cat)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrMalformedCatalog, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCatalog, err)
	}
	cat.normalize()
	return cat, nil
}

func (c Catalog) normalize() {
	for i := range c {
		u := &c[i]
		u.Name = strings.TrimSpace(u.Name)
		for j := range u.Courses {
			course := &u.Courses[j]
			course.Name = strings.TrimSpace(course.Name)
			if course.MinScores == nil {
				course.MinScores = map[string]float64{}
			}
			if course.MaxScores == nil {
				course.MaxScores = map[string]float64{}
			}
		}
	}
}
