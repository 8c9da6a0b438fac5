// Package api validates request parameters and serves the HTTP endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mapviz/hexpoi/internal/core/model"
	"github.com/mapviz/hexpoi/internal/core/observability"
	"github.com/mapviz/hexpoi/internal/geocode"
	"github.com/mapviz/hexpoi/internal/overpass"
	"github.com/mapviz/hexpoi/internal/poi"
	"github.com/mapviz/hexpoi/internal/render"
)

// Retriever is the pipeline seam; satisfied by *poi.Pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, bbox model.BBox, cats []model.Category) (model.RetrieveResult, error)
}

type Handler struct {
	logger     *slog.Logger
	resolver   geocode.Resolver
	pipeline   Retriever
	catalog    []model.Category
	renderZoom float64
}

func New(logger *slog.Logger, resolver geocode.Resolver, pipeline Retriever, catalog []model.Category, renderZoom float64) *Handler {
	if len(catalog) == 0 {
		catalog = poi.DefaultCategories
	}
	if renderZoom <= 0 {
		renderZoom = 15
	}
	return &Handler{
		logger:     logger,
		resolver:   resolver,
		pipeline:   pipeline,
		catalog:    catalog,
		renderZoom: renderZoom,
	}
}

type resolveResponse struct {
	Candidates []model.PlaceCandidate `json:"candidates"`
	Count      int                    `json:"count"`
}

// Resolve geocodes ?q= and returns all boundary/place candidates in service
// order. Zero candidates is a 200 with an empty list; picking one of many is
// the client's move.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	h.instrument(w, r, "/resolve", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		if q == "" {
			http.Error(w, "missing required parameter: q", http.StatusBadRequest)
			return
		}

		cands, err := h.resolver.Resolve(r.Context(), q)
		if err != nil {
			h.upstreamError(w, r, "resolve failed", err)
			return
		}
		if cands == nil {
			cands = []model.PlaceCandidate{}
		}
		writeJSON(w, http.StatusOK, resolveResponse{Candidates: cands, Count: len(cands)})
	})
}

// Reverse finds the place at ?lat=&lon= with optional ?zoom= (default 18).
func (h *Handler) Reverse(w http.ResponseWriter, r *http.Request) {
	h.instrument(w, r, "/reverse", func(w http.ResponseWriter, r *http.Request) {
		lat, err := parseFloatParam(r, "lat")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		lon, err := parseFloatParam(r, "lon")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		zoom := 18
		if z := strings.TrimSpace(r.URL.Query().Get("zoom")); z != "" {
			n, err := strconv.Atoi(z)
			if err != nil {
				http.Error(w, "invalid zoom: "+err.Error(), http.StatusBadRequest)
				return
			}
			zoom = n
		}

		cand, err := h.resolver.Reverse(r.Context(), lat, lon, zoom)
		if err != nil {
			if errors.Is(err, geocode.ErrUpstream) {
				h.upstreamError(w, r, "reverse geocode failed", err)
			} else {
				http.Error(w, err.Error(), http.StatusBadRequest)
			}
			return
		}
		if cand == nil {
			writeJSON(w, http.StatusOK, map[string]any{"place": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"place": cand})
	})
}

// POIs runs the retrieval pipeline for ?bbox= and ?categories=.
func (h *Handler) POIs(w http.ResponseWriter, r *http.Request) {
	h.instrument(w, r, "/pois", func(w http.ResponseWriter, r *http.Request) {
		res, _, ok := h.retrieve(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, res)
	})
}

// Render runs the pipeline and wraps the records in a GeoJSON hexagon layer
// centered on ?center= (default: bbox midpoint) at ?zoom= (default: config).
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	h.instrument(w, r, "/render", func(w http.ResponseWriter, r *http.Request) {
		res, bbox, ok := h.retrieve(w, r)
		if !ok {
			return
		}

		view := model.ViewState{
			Center: model.LatLon{
				Lat: (bbox.LatMin + bbox.LatMax) / 2,
				Lon: (bbox.LonMin + bbox.LonMax) / 2,
			},
			Zoom: h.renderZoom,
		}
		if c := strings.TrimSpace(r.URL.Query().Get("center")); c != "" {
			parts := strings.Split(c, ",")
			if len(parts) != 2 {
				http.Error(w, "invalid center: expected lat,lon", http.StatusBadRequest)
				return
			}
			lat, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			lon, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if err1 != nil || err2 != nil {
				http.Error(w, "invalid center: expected lat,lon", http.StatusBadRequest)
				return
			}
			view.Center = model.LatLon{Lat: lat, Lon: lon}
		}
		if z := strings.TrimSpace(r.URL.Query().Get("zoom")); z != "" {
			f, err := strconv.ParseFloat(z, 64)
			if err != nil {
				http.Error(w, "invalid zoom: "+err.Error(), http.StatusBadRequest)
				return
			}
			view.Zoom = f
		}

		layer, err := render.HexLayer(res, view)
		if err != nil {
			h.logger.ErrorContext(r.Context(), "render failed", "err", err)
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, layer)
	})
}

// Categories lists the static category catalog.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	h.instrument(w, r, "/categories", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"categories": h.catalog})
	})
}

// retrieve parses the shared bbox/categories parameters and runs the
// pipeline, writing the error response itself when something goes wrong.
func (h *Handler) retrieve(w http.ResponseWriter, r *http.Request) (model.RetrieveResult, model.BBox, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("bbox"))
	if raw == "" {
		http.Error(w, "missing required parameter: bbox", http.StatusBadRequest)
		return model.RetrieveResult{}, model.BBox{}, false
	}
	bbox, err := model.ParseBBox(raw)
	if err != nil {
		http.Error(w, "invalid bbox: "+err.Error(), http.StatusBadRequest)
		return model.RetrieveResult{}, model.BBox{}, false
	}

	rawCats := strings.TrimSpace(r.URL.Query().Get("categories"))
	if rawCats == "" {
		http.Error(w, "missing required parameter: categories", http.StatusBadRequest)
		return model.RetrieveResult{}, model.BBox{}, false
	}
	cats, err := poi.SelectCategories(h.catalog, strings.Split(rawCats, ","))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return model.RetrieveResult{}, model.BBox{}, false
	}
	if len(cats) == 0 {
		http.Error(w, "at least one category is required", http.StatusBadRequest)
		return model.RetrieveResult{}, model.BBox{}, false
	}

	res, err := h.pipeline.Retrieve(r.Context(), bbox, cats)
	if err != nil {
		if errors.Is(err, overpass.ErrUpstream) {
			h.upstreamError(w, r, "retrieval failed", err)
		} else {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
		return model.RetrieveResult{}, model.BBox{}, false
	}
	return res, bbox, true
}

func (h *Handler) upstreamError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg, "err", err)
	http.Error(w, msg+": "+err.Error(), http.StatusBadGateway)
}

func (h *Handler) instrument(w http.ResponseWriter, r *http.Request, route string, fn http.HandlerFunc) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
	fn(sw, r)
	observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return 0, errors.New("missing required parameter: " + name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.New("invalid " + name + ": " + err.Error())
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
