// Package geocode resolves free-text place names into candidate places.
package geocode

import (
	"context"
	"errors"

	"github.com/mapviz/hexpoi/internal/core/model"
)

// ErrUpstream marks a geocoding service fault (network error or non-2xx
// response). Callers surface it distinctly instead of treating it as an
// empty result.
var ErrUpstream = errors.New("geocoding service request failed")

// Resolver turns a place name into zero, one or many candidates.
//
// Zero candidates is not an error: the caller presents a "not found"
// outcome. Multiple candidates require an explicit caller-side choice;
// service ordering is preserved and no default is picked here.
type Resolver interface {
	Resolve(ctx context.Context, name string) ([]model.PlaceCandidate, error)
	Reverse(ctx context.Context, lat, lon float64, zoom int) (*model.PlaceCandidate, error)
}
