package overpass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mapviz/hexpoi/internal/cache"
	"github.com/mapviz/hexpoi/internal/cache/keys"
	"github.com/mapviz/hexpoi/internal/core/observability"
)

// ErrUpstream marks an Overpass service fault. It is never retried here;
// retry policy belongs to the operator of the upstream endpoint.
var ErrUpstream = errors.New("overpass request failed")

const upstreamName = "overpass"

// Element is one returned map element. Ways and relations carry their
// centroid in Center; nodes carry Lat/Lon directly.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center,omitempty"`
	Tags map[string]string `json:"tags,omitempty"`
}

// Position returns the element's render coordinate.
func (e Element) Position() (lat, lon float64) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon
	}
	return e.Lat, e.Lon
}

// Tag returns the value for key, or "" when absent.
func (e Element) Tag(key string) string {
	return e.Tags[key]
}

type Result struct {
	Elements []Element `json:"elements"`
}

// Count is the total element count before any client-side capping.
func (r Result) Count() int { return len(r.Elements) }

// Client executes raw Overpass queries with responses read through the
// explicit cache.
type Client struct {
	endpoint string
	client   *http.Client
	store    cache.Interface
	ttl      time.Duration
	log      *slog.Logger
}

func NewClient(endpoint string, client *http.Client, store cache.Interface, ttl time.Duration, log *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		endpoint: endpoint,
		client:   client,
		store:    store,
		ttl:      ttl,
		log:      log,
	}
}

// Query runs a raw Overpass QL query and decodes the element set.
func (c *Client) Query(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}

	body, err := cache.GetOrFill(ctx, c.store, keys.Key("overpass.query", query), c.ttl,
		func(ctx context.Context) ([]byte, error) { return c.fetch(ctx, query) })
	if err != nil {
		return nil, err
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	return &res, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	dur := time.Since(start)
	observability.ObserveUpstreamLatency(upstreamName, dur.Seconds())
	if err != nil {
		observability.IncUpstreamError(upstreamName)
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.DebugContext(ctx, "overpass query done",
		"status", resp.StatusCode,
		"duration", dur.String())

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
