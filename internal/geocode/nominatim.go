package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mapviz/hexpoi/internal/cache"
	"github.com/mapviz/hexpoi/internal/cache/keys"
	"github.com/mapviz/hexpoi/internal/core/model"
	"github.com/mapviz/hexpoi/internal/core/observability"
	"github.com/mapviz/hexpoi/internal/logger"
)

const upstreamName = "nominatim"

// Nominatim is a Resolver backed by the public Nominatim search API, with
// responses read through the explicit cache.
type Nominatim struct {
	base   string
	client *http.Client
	store  cache.Interface
	ttl    time.Duration
	log    *slog.Logger
}

func NewNominatim(base string, client *http.Client, store cache.Interface, ttl time.Duration, log *slog.Logger) *Nominatim {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Nominatim{
		base:   strings.TrimRight(base, "/"),
		client: client,
		store:  store,
		ttl:    ttl,
		log:    log,
	}
}

// wire shape of one /search or /reverse item
type nominatimItem struct {
	DisplayName string    `json:"display_name"`
	Class       string    `json:"class"`
	Type        string    `json:"type"`
	Lat         string    `json:"lat"`
	Lon         string    `json:"lon"`
	BoundingBox [4]string `json:"boundingbox"`
}

func (n *Nominatim) Resolve(ctx context.Context, name string) ([]model.PlaceCandidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("place name is required")
	}

	ctx = logger.WithUpstream(ctx, upstreamName)
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", n.base, url.QueryEscape(name))

	body, err := cache.GetOrFill(ctx, n.store, keys.Key("nominatim.search", name), n.ttl,
		func(ctx context.Context) ([]byte, error) { return n.fetch(ctx, endpoint) })
	if err != nil {
		return nil, err
	}

	var items []nominatimItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	// keep boundary/place candidates only, in service order
	out := make([]model.PlaceCandidate, 0, len(items))
	for _, it := range items {
		cls := model.ClassifyPlace(it.Class)
		if cls == model.ClassOther {
			continue
		}
		cand, err := toCandidate(it, cls)
		if err != nil {
			n.log.WarnContext(ctx, "skipping malformed candidate",
				"display_name", it.DisplayName, "err", err)
			continue
		}
		out = append(out, cand)
	}
	return out, nil
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64, zoom int) (*model.PlaceCandidate, error) {
	if zoom < 0 || zoom > 18 {
		return nil, fmt.Errorf("zoom %d out of range [0,18]", zoom)
	}

	ctx = logger.WithUpstream(ctx, upstreamName)
	latS := strconv.FormatFloat(lat, 'f', -1, 64)
	lonS := strconv.FormatFloat(lon, 'f', -1, 64)
	endpoint := fmt.Sprintf("%s/reverse?lat=%s&lon=%s&zoom=%d&format=json", n.base, latS, lonS, zoom)

	body, err := cache.GetOrFill(ctx, n.store, keys.Key("nominatim.reverse", latS, lonS, strconv.Itoa(zoom)), n.ttl,
		func(ctx context.Context) ([]byte, error) { return n.fetch(ctx, endpoint) })
	if err != nil {
		return nil, err
	}

	var it nominatimItem
	if err := json.Unmarshal(body, &it); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if it.DisplayName == "" {
		return nil, nil // nothing at these coordinates
	}
	cand, err := toCandidate(it, model.ClassifyPlace(it.Class))
	if err != nil {
		return nil, fmt.Errorf("malformed reverse result: %w", err)
	}
	return &cand, nil
}

func (n *Nominatim) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	observability.ObserveUpstreamLatency(upstreamName, time.Since(start).Seconds())
	if err != nil {
		observability.IncUpstreamError(upstreamName)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		observability.IncUpstreamError(upstreamName)
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.IncUpstreamError(upstreamName)
		return nil, fmt.Errorf("%w: read body: %v", ErrUpstream, err)
	}
	return b, nil
}

func toCandidate(it nominatimItem, cls model.PlaceClass) (model.PlaceCandidate, error) {
	bb, err := model.ParseBBoxParts(it.BoundingBox)
	if err != nil {
		return model.PlaceCandidate{}, fmt.Errorf("boundingbox: %w", err)
	}
	lat, err := strconv.ParseFloat(it.Lat, 64)
	if err != nil {
		return model.PlaceCandidate{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(it.Lon, 64)
	if err != nil {
		return model.PlaceCandidate{}, fmt.Errorf("lon: %w", err)
	}
	return model.PlaceCandidate{
		DisplayName: it.DisplayName,
		Class:       cls,
		BBox:        bb,
		Center:      model.LatLon{Lat: lat, Lon: lon},
	}, nil
}
