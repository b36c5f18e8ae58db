package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Loader reads and validates the discovery catalog directory.
type Loader struct {
	catalogDir string
}

func NewLoader(catalogDir string) *Loader {
	return &Loader{catalogDir: catalogDir}
}

// LoadAll loads every YAML file from the catalog directory and merges the
// results. A missing directory yields an empty catalog, not an error.
func (l *Loader) LoadAll() (*Catalog, error) {
	catalog := &Catalog{}

	if _, err := os.Stat(l.catalogDir); os.IsNotExist(err) {
		return catalog, nil
	}

	files, err := filepath.Glob(filepath.Join(l.catalogDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.catalogDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	for _, file := range files {
		cf, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(cf); err != nil {
			return nil, fmt.Errorf("invalid catalog file %s: %w", file, err)
		}

		catalog.Countries = append(catalog.Countries, cf.Countries...)
		if cf.Category != nil {
			catalog.Categories = append(catalog.Categories, CategoryEntry{
				Category: *cf.Category,
				Products: cf.Products,
			})
		}
	}

	return catalog, nil
}

func (l *Loader) loadFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var cf CatalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&cf)

	return &cf, nil
}

func (l *Loader) setDefaults(cf *CatalogFile) {
	for i := range cf.Countries {
		if cf.Countries[i].Multiplier == 0 {
			cf.Countries[i].Multiplier = 1.0
		}
		if cf.Countries[i].Currency == "" {
			cf.Countries[i].Currency = "USD"
		}
	}
}

func (l *Loader) validate(cf *CatalogFile) error {
	for _, c := range cf.Countries {
		if c.Code == "" {
			return fmt.Errorf("country entry is missing a code")
		}
		if c.Name == "" {
			return fmt.Errorf("country %s is missing a name", c.Code)
		}
	}

	if cf.Category != nil {
		if cf.Category.Slug == "" {
			return fmt.Errorf("category %q is missing a slug", cf.Category.Name)
		}
		for _, p := range cf.Products {
			if p.Name == "" {
				return fmt.Errorf("product entry in category %s is missing a name", cf.Category.Slug)
			}
			if p.BasePrice <= 0 {
				return fmt.Errorf("product %q has a non-positive base price", p.Name)
			}
		}
	} else if len(cf.Products) > 0 {
		return fmt.Errorf("products listed without a category")
	}

	return nil
}
