package poi

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/mapviz/hexpoi/internal/core/model"
	"github.com/mapviz/hexpoi/internal/core/observability"
	"github.com/mapviz/hexpoi/internal/hexgrid"
	"github.com/mapviz/hexpoi/internal/overpass"
)

// Querier is the data-source seam; satisfied by *overpass.Client.
type Querier interface {
	Query(ctx context.Context, query string) (*overpass.Result, error)
}

// Pipeline turns (bbox, selected categories) into render-ready POI records.
type Pipeline struct {
	source      Querier
	res         int
	maxElements int
	log         *slog.Logger
}

func NewPipeline(source Querier, res, maxElements int, log *slog.Logger) *Pipeline {
	if res <= 0 {
		res = hexgrid.DefaultRes
	}
	if maxElements <= 0 {
		maxElements = 10000
	}
	return &Pipeline{
		source:      source,
		res:         res,
		maxElements: maxElements,
		log:         log,
	}
}

// Retrieve executes one combined query for all selected categories and maps
// each element to a record. An empty result set is not an error; upstream
// faults propagate wrapped in overpass.ErrUpstream and are never retried.
func (p *Pipeline) Retrieve(ctx context.Context, bbox model.BBox, cats []model.Category) (model.RetrieveResult, error) {
	if err := bbox.Validate(); err != nil {
		return model.RetrieveResult{}, err
	}
	selectors := overpass.Selectors(cats)
	if len(selectors) == 0 {
		return model.RetrieveResult{}, errors.New("at least one category is required")
	}

	res, err := p.source.Query(ctx, overpass.BuildQuery(bbox, selectors))
	if err != nil {
		return model.RetrieveResult{}, err
	}

	total := res.Count()
	out := model.RetrieveResult{Records: []model.POIRecord{}, Total: total}
	if total == 0 {
		return out, nil
	}

	// cap before the name filter, matching the service-side element order
	elems := res.Elements
	if total > p.maxElements {
		elems = elems[:p.maxElements]
		out.Truncated = true
		observability.IncResultsTruncated()
	}

	for _, el := range elems {
		name := el.Tag("name")
		if name == "" {
			continue // unnamed elements are not renderable
		}
		cat, ok := matchCategory(cats, el.Tags)
		if !ok {
			// selected categories only; anything else was filtered upstream
			p.log.DebugContext(ctx, "element matches no selected category", "id", el.ID)
			continue
		}
		lat, lon := el.Position()
		cell, err := hexgrid.CellFor(lat, lon, p.res)
		if err != nil {
			p.log.WarnContext(ctx, "dropping element outside grid", "id", el.ID, "err", err)
			continue
		}
		out.Records = append(out.Records, model.POIRecord{
			Name:       name,
			HexCell:    cell,
			Color:      cat.Color,
			TagSummary: TagSummary(el.Tags),
			Lat:        lat,
			Lon:        lon,
		})
	}

	observability.AddPOIsReturned(len(out.Records))
	return out, nil
}

// matchCategory returns the first selected category whose tag values
// intersect the element's tag value set. First match wins.
func matchCategory(cats []model.Category, tags map[string]string) (model.Category, bool) {
	if len(tags) == 0 {
		return model.Category{}, false
	}
	vals := make(map[string]bool, len(tags))
	for _, v := range tags {
		vals[v] = true
	}
	for _, c := range cats {
		for _, tv := range c.TagValues {
			if vals[tv] {
				return c, true
			}
		}
	}
	return model.Category{}, false
}

// TagSummary joins all tags except address and name keys as "key: value"
// lines. Keys are sorted so identical inputs always render identically.
func TagSummary(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		if strings.Contains(k, "addr") || strings.Contains(k, "name") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+tags[k])
	}
	return strings.Join(parts, "\n")
}
