// Package atlas connects hand-drawn ROIs to registered atlas regions: it reads
// region outlines saved for a registered slice, brings them to the display
// level, and names the files produced from them.
package atlas

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrRegionNotFound indicates a region name absent from a catalog.
	ErrRegionNotFound = errors.New("region not found")

	// ErrDuplicateRegion indicates a region name present more than once in a catalog.
	ErrDuplicateRegion = errors.New("region name is not unique")

	// ErrMalformedName indicates a qualified region name without a side prefix.
	ErrMalformedName = errors.New("region name must be written as Side-Region")
)

// LookupError reports a failed region lookup in a catalog
type LookupError struct {
	Name    string
	Catalog string
	Err     error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("region %q in %s: %v", e.Name, e.Catalog, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// Outline is a region boundary as saved by the registration step, in pixels
// of the registration image.
type Outline struct {
	Name string    `yaml:"name"`
	X    []float64 `yaml:"x"`
	Y    []float64 `yaml:"y"`
}

// Catalog gives access to the region outlines of one registered slice
type Catalog interface {
	// Source identifies the catalog in error messages
	Source() string

	// Outline returns the outline of the named region
	Outline(name string) (Outline, error)

	// Names lists the regions of the catalog in stored order
	Names() []string
}

// YAMLCatalog is a Catalog read from a YAML regions file
type YAMLCatalog struct {
	path    string
	Slice   string    `yaml:"slice"`
	Regions []Outline `yaml:"regions"`
}

// LoadCatalog reads a regions file
func LoadCatalog(path string) (*YAMLCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading regions file: %w", err)
	}

	cat := &YAMLCatalog{}
	if err := yaml.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("error parsing regions file: %w", err)
	}
	cat.path = path

	for _, r := range cat.Regions {
		if len(r.X) != len(r.Y) {
			return nil, fmt.Errorf("region %q in %s has %d x and %d y vertices", r.Name, path, len(r.X), len(r.Y))
		}
	}
	return cat, nil
}

// SaveCatalog writes a regions file
func SaveCatalog(cat *YAMLCatalog, path string) error {
	data, err := yaml.Marshal(cat)
	if err != nil {
		return fmt.Errorf("error marshaling regions: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing regions file: %w", err)
	}
	return nil
}

func (c *YAMLCatalog) Source() string {
	if c.path == "" {
		return "regions of " + c.Slice
	}
	return c.path
}

func (c *YAMLCatalog) Outline(name string) (Outline, error) {
	var found []Outline
	for _, r := range c.Regions {
		if r.Name == name {
			found = append(found, r)
		}
	}
	switch len(found) {
	case 0:
		return Outline{}, &LookupError{Name: name, Catalog: c.Source(), Err: ErrRegionNotFound}
	case 1:
		return found[0], nil
	default:
		return Outline{}, &LookupError{Name: name, Catalog: c.Source(), Err: ErrDuplicateRegion}
	}
}

func (c *YAMLCatalog) Names() []string {
	names := make([]string, len(c.Regions))
	for i, r := range c.Regions {
		names[i] = r.Name
	}
	return names
}
