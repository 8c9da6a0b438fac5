// Package overpass builds and executes Overpass API queries for tagged map
// elements inside a bounding box.
package overpass

import (
	"strings"

	"github.com/mapviz/hexpoi/internal/core/model"
)

// Selectors expands the selected categories into key=value pairs, one per
// tag value, preserving category declaration order.
func Selectors(cats []model.Category) []string {
	var out []string
	for _, c := range cats {
		out = append(out, c.Selectors()...)
	}
	return out
}

// BuildQuery emits one node sub-query per selector, unioned, scoped to the
// bbox. The bbox is re-serialized in Overpass order (south,west,north,east),
// not the geocoder's (lat_min,lat_max,lon_min,lon_max) tuple order.
func BuildQuery(bbox model.BBox, selectors []string) string {
	bb := bbox.OverpassString()

	var b strings.Builder
	b.WriteString("[out:json];\n(\n")
	for _, sel := range selectors {
		b.WriteString("  node[")
		b.WriteString(sel)
		b.WriteString("](")
		b.WriteString(bb)
		b.WriteString(");\n")
	}
	b.WriteString(");\nout center;\nout body;")
	return b.String()
}
