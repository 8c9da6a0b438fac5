// Package render serializes POI records into a GeoJSON hexagon layer.
package render

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/mapviz/hexpoi/internal/core/model"
	"github.com/mapviz/hexpoi/internal/hexgrid"
)

// Layer is the render-ready output: one hexagon feature per record plus the
// view state derived from the selected place.
type Layer struct {
	View      model.ViewState            `json:"view"`
	Truncated bool                       `json:"truncated"`
	Total     int                        `json:"total"`
	Features  *geojson.FeatureCollection `json:"features"`
}

// HexLayer builds the hexagon FeatureCollection. Records sharing a cell
// each produce their own feature; the consumer stacks or dedupes as it
// sees fit, matching the per-record layer of the original display.
func HexLayer(res model.RetrieveResult, view model.ViewState) (*Layer, error) {
	fc := geojson.NewFeatureCollection()

	for _, rec := range res.Records {
		verts, err := hexgrid.Boundary(rec.HexCell)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", rec.HexCell, err)
		}
		ring := make(orb.Ring, 0, len(verts))
		for _, v := range verts {
			// GeoJSON positions are (lon, lat)
			ring = append(ring, orb.Point{v[1], v[0]})
		}

		f := geojson.NewFeature(orb.Polygon{ring})
		f.ID = rec.HexCell
		f.Properties = geojson.Properties{
			"name":  rec.Name,
			"hex":   rec.HexCell,
			"color": []int{int(rec.Color[0]), int(rec.Color[1]), int(rec.Color[2])},
			"tags":  rec.TagSummary,
		}
		fc.Append(f)
	}

	return &Layer{
		View:      view,
		Truncated: res.Truncated,
		Total:     res.Total,
		Features:  fc,
	}, nil
}
