// Package aggregate groups joined features by an attribute key and
// computes per-group record summaries.
package aggregate

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/atlasbio/occmap/internal/feature"
)

// Summary field names attached to aggregated polygon features.
const (
	FieldRecords     = "records"
	FieldRecordsSqrt = "records_sqrt"
)

// Group is one distinct key value and the features carrying it,
// in input order.
type Group struct {
	Key      string
	Features []*feature.Feature
}

// GroupBy partitions a collection by the value of the key attribute.
// Groups are ordered by first appearance; features with an empty key
// value are skipped.
func GroupBy(col *feature.Collection, key string) []Group {
	byKey := make(map[string]int)
	var groups []Group
	for _, f := range col.Features {
		v := f.String(key)
		if v == "" {
			continue
		}
		i, ok := byKey[v]
		if !ok {
			i = len(groups)
			byKey[v] = i
			groups = append(groups, Group{Key: v})
		}
		groups[i].Features = append(groups[i].Features, f)
	}
	return groups
}

// Summary holds the computed per-group values.
type Summary struct {
	Key         string
	Records     int
	RecordsSqrt float64
}

// Count computes the record count and its square root for each group.
func Count(groups []Group) []Summary {
	out := make([]Summary, len(groups))
	for i, g := range groups {
		out[i] = Summary{
			Key:         g.Key,
			Records:     len(g.Features),
			RecordsSqrt: math.Sqrt(float64(len(g.Features))),
		}
	}
	return out
}

// Summarize groups the joined collection by key and attaches the
// summaries to the matching polygons, whose geometry is taken unchanged
// from the polygons collection. Polygons whose key never appears in the
// joined collection are omitted, mirroring join-then-group semantics.
func Summarize(joined, polygons *feature.Collection, key string) (*feature.Collection, error) {
	if !joined.HasField(key) {
		return nil, eris.Errorf("aggregate: joined collection has no field %q", key)
	}
	if !polygons.HasField(key) {
		return nil, eris.Errorf("aggregate: polygon collection has no field %q", key)
	}

	summaries := Count(GroupBy(joined, key))
	byKey := make(map[string]Summary, len(summaries))
	for _, s := range summaries {
		byKey[s.Key] = s
	}

	out := polygons.Derive()
	out.Fields = append(out.Fields, FieldRecords, FieldRecordsSqrt)
	for _, pf := range polygons.Features {
		s, ok := byKey[pf.String(key)]
		if !ok {
			continue
		}
		attrs := feature.CloneAttrs(pf.Attrs)
		attrs[FieldRecords] = s.Records
		attrs[FieldRecordsSqrt] = s.RecordsSqrt
		out.Append(&feature.Feature{Geom: pf.Geom, Attrs: attrs})
	}
	return out, nil
}
