// Package feature defines the vector data model shared by the pipeline:
// a Feature couples one geometry with named scalar attributes, and a
// Collection is an ordered set of Features sharing one CRS.
package feature

import (
	"strconv"

	"github.com/ctessum/geom"
)

// Feature is one spatial record: a geometry plus its attributes.
// Attribute ordering lives on the containing Collection.
type Feature struct {
	Geom  geom.Geom
	Attrs map[string]any
}

// Bounds returns the bounding box of the feature geometry.
// It implements rtree.Spatial so features can be indexed directly.
func (f *Feature) Bounds() *geom.Bounds {
	return f.Geom.Bounds()
}

// String returns the named attribute as a string, or "" if absent.
func (f *Feature) String(key string) string {
	v, ok := f.Attrs[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	default:
		return ""
	}
}

// Float returns the named attribute as a float64.
// The second return reports whether the attribute was present and numeric.
func (f *Feature) Float(key string) (float64, bool) {
	v, ok := f.Attrs[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// Collection is an ordered sequence of Features sharing one CRS,
// identified by its EPSG code. SRID 0 means the CRS is undefined.
type Collection struct {
	SRID     int
	Fields   []string
	Features []*Feature
}

// New returns an empty collection with the given SRID and attribute order.
func New(srid int, fields []string) *Collection {
	return &Collection{SRID: srid, Fields: fields}
}

// Len returns the number of features in the collection.
func (c *Collection) Len() int { return len(c.Features) }

// Append adds a feature to the end of the collection.
func (c *Collection) Append(f *Feature) {
	c.Features = append(c.Features, f)
}

// Derive returns a new empty collection inheriting the receiver's SRID
// and attribute order. Transformations build their output with Derive so
// the input collection is never mutated.
func (c *Collection) Derive() *Collection {
	fields := make([]string, len(c.Fields))
	copy(fields, c.Fields)
	return &Collection{SRID: c.SRID, Fields: fields}
}

// HasField reports whether the collection declares the named attribute.
func (c *Collection) HasField(name string) bool {
	for _, f := range c.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// CloneAttrs returns a shallow copy of an attribute map.
func CloneAttrs(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
