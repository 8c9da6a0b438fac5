// Package hexgrid converts coordinates to H3 cells and cells to polygon
// boundaries for rendering.
package hexgrid

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// DefaultRes is the fixed aggregation resolution for POI binning.
const DefaultRes = 12

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// CellFor returns the H3 cell id containing (lat, lon) at res.
func CellFor(lat, lon float64, res int) (string, error) {
	if err := validateRes(res); err != nil {
		return "", err
	}
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, res)
	if err != nil {
		return "", fmt.Errorf("h3 cell: %w", err)
	}
	return c.String(), nil
}

// Boundary returns the cell's hexagon outline as (lat, lon) vertex pairs,
// closed (first vertex repeated last) for GeoJSON ring output.
func Boundary(cell string) ([][2]float64, error) {
	var c h3.Cell
	if err := c.UnmarshalText([]byte(cell)); err != nil {
		return nil, fmt.Errorf("parse cell: %w", err)
	}
	if !c.IsValid() {
		return nil, fmt.Errorf("invalid h3 cell %q", cell)
	}

	verts, err := c.Boundary()
	if err != nil {
		return nil, fmt.Errorf("h3 boundary: %w", err)
	}
	out := make([][2]float64, 0, len(verts)+1)
	for _, v := range verts {
		out = append(out, [2]float64{v.Lat, v.Lng})
	}
	if len(out) > 0 {
		out = append(out, out[0])
	}
	return out, nil
}
