// Package catalog holds the flat body catalogs the engine is seeded from.
//
// A catalog is a list of entries, each carrying its own element set and
// influence list. Catalogs are read from YAML or TOML files or built from
// the presets in this package. Entries are templates: the engine copies
// them and never writes back.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/kepler"
	"gopkg.in/yaml.v3"
)

// Entry describes one body.
type Entry struct {
	ID         dynamo.BodyID    `yaml:"id" toml:"id" json:"id"`
	Name       string           `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Mass       float64          `yaml:"mass" toml:"mass" json:"mass"` // kg
	Elements   *kepler.Elements `yaml:"elements,omitempty" toml:"elements,omitempty" json:"elements,omitempty"`
	Influences []dynamo.BodyID  `yaml:"influences,omitempty" toml:"influences,omitempty" json:"influences,omitempty"`
}

// Wrt returns the body this entry's orbit is defined against, or "" for a
// root.
func (e Entry) Wrt() dynamo.BodyID {
	if e.Elements == nil {
		return ""
	}
	return e.Elements.Wrt
}

// IsRoot reports whether the entry has no parent orbit.
func (e Entry) IsRoot() bool { return e.Wrt() == "" }

// Dependencies returns the bodies that must be resolved before this one:
// the influence list plus the wrt body, without duplicates.
func (e Entry) Dependencies() []dynamo.BodyID {
	deps := make([]dynamo.BodyID, 0, len(e.Influences)+1)
	seen := make(map[dynamo.BodyID]bool, len(e.Influences)+1)
	add := func(id dynamo.BodyID) {
		if id != "" && !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
	}
	add(e.Wrt())
	for _, id := range e.Influences {
		add(id)
	}
	return deps
}

func (e Entry) DisplayName() string {
	if e.Name != "" {
		return e.Name
	}
	return string(e.ID)
}

// Clone returns a deep copy.
func (e Entry) Clone() Entry {
	c := e
	if e.Elements != nil {
		el := *e.Elements
		if el.Rotation != nil {
			rot := *el.Rotation
			el.Rotation = &rot
		}
		c.Elements = &el
	}
	if e.Influences != nil {
		c.Influences = append([]dynamo.BodyID(nil), e.Influences...)
	}
	return c
}

// Catalog is a named, ordered collection of entries sharing a default
// epoch.
type Catalog struct {
	Name    string      `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
	Epoch   epoch.Epoch `yaml:"epoch" toml:"epoch" json:"epoch"`
	Entries []Entry     `yaml:"bodies" toml:"bodies" json:"bodies"`
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id dynamo.BodyID) (Entry, bool) {
	for _, e := range c.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

func (c *Catalog) IDs() []dynamo.BodyID {
	ids := make([]dynamo.BodyID, len(c.Entries))
	for i, e := range c.Entries {
		ids[i] = e.ID
	}
	return ids
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{Name: c.Name, Epoch: c.Epoch, Entries: make([]Entry, len(c.Entries))}
	for i, e := range c.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// Validate checks structural consistency: non-empty unique ids, known
// references, no self references and at least one root. Physical validity
// of masses and elements is left to the resolver, which rejects bad bodies
// one at a time.
func (c *Catalog) Validate() error {
	if len(c.Entries) == 0 {
		return errors.New("catalog: no bodies")
	}

	known := make(map[dynamo.BodyID]bool, len(c.Entries))
	roots := 0
	for _, e := range c.Entries {
		if e.ID == "" {
			return errors.New("catalog: body with empty id")
		}
		if known[e.ID] {
			return dynamo.ForBody(e.ID, dynamo.ErrDuplicateBody)
		}
		known[e.ID] = true
		if e.IsRoot() {
			roots++
		}
	}
	if roots == 0 {
		return errors.New("catalog: no root body (every body has a wrt parent)")
	}

	var errs []error
	for _, e := range c.Entries {
		for _, dep := range e.Dependencies() {
			if dep == e.ID {
				errs = append(errs, dynamo.ForBody(e.ID, fmt.Errorf("%w: depends on itself", dynamo.ErrUnresolvable)))
				continue
			}
			if !known[dep] {
				errs = append(errs, dynamo.ForBody(e.ID, fmt.Errorf("%w: %s", dynamo.ErrUnknownBody, dep)))
			}
		}
	}
	return errors.Join(errs...)
}

// normalize fills in defaults after decoding: a missing catalog epoch
// becomes J2000 and element sets without an epoch inherit the catalog's.
func (c *Catalog) normalize() {
	if c.Epoch.IsZero() {
		c.Epoch = epoch.J2000()
	}
	for i := range c.Entries {
		if el := c.Entries[i].Elements; el != nil && el.Epoch.IsZero() {
			el.Epoch = c.Epoch
		}
	}
}

type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("catalog: unsupported file extension %q", filepath.Ext(path))
	}
}

// Decode reads a catalog, rejecting unknown fields, and validates it.
func Decode(r io.Reader, format Format) (*Catalog, error) {
	var c Catalog
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("catalog: decode yaml: %w", err)
		}
	case FormatTOML:
		dec := toml.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("catalog: decode toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("catalog: unknown format %q", format)
	}

	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Encode writes the catalog in the given format.
func Encode(w io.Writer, c *Catalog, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		return toml.NewEncoder(w).Encode(c)
	default:
		return fmt.Errorf("catalog: unknown format %q", format)
	}
}

func Load(path string) (*Catalog, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

func Save(path string, c *Catalog) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, c, format); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
