// Package model defines core domain types shared across the service.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// BBox keeps the Nominatim boundingbox field order: (lat_min, lat_max, lon_min, lon_max).
// Overpass wants (south, west, north, east); the swap happens in OverpassString only.
//
// The geocoder delivers the four values as strings. Those originals are kept in
// raw so that re-serializing into an Overpass filter emits exactly what the
// service sent (e.g. "37.70" stays "37.70", not "37.7").
type BBox struct {
	LatMin, LatMax float64
	LonMin, LonMax float64

	raw [4]string
}

// NewBBox builds a bbox from already-parsed coordinates.
func NewBBox(latMin, latMax, lonMin, lonMax float64) BBox {
	b := BBox{LatMin: latMin, LatMax: latMax, LonMin: lonMin, LonMax: lonMax}
	b.raw = [4]string{trimFloat(latMin), trimFloat(latMax), trimFloat(lonMin), trimFloat(lonMax)}
	return b
}

// String representation matching the nominatim boundingbox order
func (b BBox) String() string {
	return fmt.Sprintf("%s,%s,%s,%s", b.rawOr(0), b.rawOr(1), b.rawOr(2), b.rawOr(3))
}

// OverpassString renders the bbox in the order the Overpass filter language
// expects: (lat_min,lon_min,lat_max,lon_max).
func (b BBox) OverpassString() string {
	return fmt.Sprintf("%s,%s,%s,%s", b.rawOr(0), b.rawOr(2), b.rawOr(1), b.rawOr(3))
}

func (b BBox) rawOr(i int) string {
	if b.raw[i] != "" {
		return b.raw[i]
	}
	switch i {
	case 0:
		return trimFloat(b.LatMin)
	case 1:
		return trimFloat(b.LatMax)
	case 2:
		return trimFloat(b.LonMin)
	default:
		return trimFloat(b.LonMax)
	}
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseBBox parses four comma-separated values in nominatim order, keeping
// the source text for later re-serialization.
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, errors.New("expected 4 comma-separated values: lat_min,lat_max,lon_min,lon_max")
	}
	return ParseBBoxParts([4]string{parts[0], parts[1], parts[2], parts[3]})
}

// ParseBBoxParts parses the positional boundingbox strings as delivered by
// the geocoding service: (lat_min, lat_max, lon_min, lon_max).
func ParseBBoxParts(parts [4]string) (BBox, error) {
	var vals [4]float64
	for i, p := range parts {
		p = strings.TrimSpace(p)
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return BBox{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		vals[i] = f
		parts[i] = p
	}
	bb := BBox{LatMin: vals[0], LatMax: vals[1], LonMin: vals[2], LonMax: vals[3], raw: parts}
	if err := bb.Validate(); err != nil {
		return BBox{}, err
	}
	return bb, nil
}

func (b BBox) Validate() error {
	if b.LatMin < -90 || b.LatMin > 90 || b.LatMax < -90 || b.LatMax > 90 {
		return errors.New("latitude must be in [-90,90]")
	}
	if b.LonMin < -180 || b.LonMin > 180 || b.LonMax < -180 || b.LonMax > 180 {
		return errors.New("longitude must be in [-180,180]")
	}
	if b.LatMax <= b.LatMin || b.LonMax <= b.LonMin {
		return errors.New("coordinates must satisfy lat_max>lat_min and lon_max>lon_min")
	}
	return nil
}

type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// PlaceClass buckets nominatim result classes. Only boundary and place
// candidates survive resolution; POI-type matches are discarded.
type PlaceClass string

const (
	ClassBoundary PlaceClass = "boundary"
	ClassPlace    PlaceClass = "place"
	ClassOther    PlaceClass = "other"
)

func ClassifyPlace(raw string) PlaceClass {
	switch raw {
	case "boundary":
		return ClassBoundary
	case "place":
		return ClassPlace
	default:
		return ClassOther
	}
}

// PlaceCandidate is one geocoder match, immutable once produced.
type PlaceCandidate struct {
	DisplayName string     `json:"display_name"`
	Class       PlaceClass `json:"class"`
	BBox        BBox       `json:"bbox"`
	Center      LatLon     `json:"center"`
}

// RGB is a display color triple.
type RGB [3]uint8

// Category is a static tag-based POI grouping known at build time.
type Category struct {
	Label     string   `json:"label"`
	TagKey    string   `json:"tag_key"`
	TagValues []string `json:"tag_values"`
	Color     RGB      `json:"color"`
}

// Selectors expands the category into one key=value selector per tag value.
func (c Category) Selectors() []string {
	out := make([]string, 0, len(c.TagValues))
	for _, v := range c.TagValues {
		out = append(out, c.TagKey+"="+v)
	}
	return out
}

// POIRecord is one render-ready element; it lives for the duration of a
// single render.
type POIRecord struct {
	Name       string  `json:"name"`
	HexCell    string  `json:"hex"`
	Color      RGB     `json:"color"`
	TagSummary string  `json:"tags"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// RetrieveResult carries the pipeline output plus the informational
// truncation signal.
type RetrieveResult struct {
	Records   []POIRecord `json:"records"`
	Total     int         `json:"total"`
	Truncated bool        `json:"truncated"`
}

// ViewState centers the rendered layer on the selected place.
type ViewState struct {
	Center LatLon  `json:"center"`
	Zoom   float64 `json:"zoom"`
}
