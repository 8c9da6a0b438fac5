// Package poi retrieves tagged map elements and prepares them for hex-bin
// rendering.
package poi

import (
	"fmt"
	"strings"

	"github.com/mapviz/hexpoi/internal/core/model"
)

// DefaultCategories is the built-in catalog. Declaration order matters:
// an element matching several categories takes the color of the first one.
var DefaultCategories = []model.Category{
	{
		Label:     "Clinics and Hospitals",
		TagKey:    "amenity",
		TagValues: []string{"clinic", "hospital"},
		Color:     model.RGB{141, 211, 199},
	},
	{
		Label:     "Schools and Kindergartens",
		TagKey:    "amenity",
		TagValues: []string{"school", "kindergarten"},
		Color:     model.RGB{255, 255, 179},
	},
	{
		Label:     "Restaurants",
		TagKey:    "amenity",
		TagValues: []string{"restaurant"},
		Color:     model.RGB{190, 186, 218},
	},
	{
		Label:     "Cinemas and Theaters",
		TagKey:    "amenity",
		TagValues: []string{"cinema", "theatre"},
		Color:     model.RGB{251, 128, 114},
	},
	{
		Label:     "Grocery stores and supermarkets",
		TagKey:    "shop",
		TagValues: []string{"convenience", "greengrocer", "seafood", "mall", "wholesale", "supermarket"},
		Color:     model.RGB{128, 177, 211},
	},
}

// SelectCategories maps labels to catalog entries, preserving catalog
// declaration order regardless of the order labels were given in.
func SelectCategories(catalog []model.Category, labels []string) ([]model.Category, error) {
	want := make(map[string]bool, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		found := false
		for _, c := range catalog {
			if strings.EqualFold(c.Label, l) {
				want[c.Label] = true
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown category %q", l)
		}
	}

	out := make([]model.Category, 0, len(want))
	for _, c := range catalog {
		if want[c.Label] {
			out = append(out, c)
		}
	}
	return out, nil
}
