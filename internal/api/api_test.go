package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mapviz/hexpoi/internal/core/model"
	"github.com/mapviz/hexpoi/internal/geocode"
	"github.com/mapviz/hexpoi/internal/overpass"
	"github.com/mapviz/hexpoi/internal/poi"
)

type fakeResolver struct {
	cands      []model.PlaceCandidate
	resolveErr error
	place      *model.PlaceCandidate
	reverseErr error

	gotName string
	gotZoom int
}

func (f *fakeResolver) Resolve(_ context.Context, name string) ([]model.PlaceCandidate, error) {
	f.gotName = name
	return f.cands, f.resolveErr
}

func (f *fakeResolver) Reverse(_ context.Context, _, _ float64, zoom int) (*model.PlaceCandidate, error) {
	f.gotZoom = zoom
	return f.place, f.reverseErr
}

type fakePipeline struct {
	res model.RetrieveResult
	err error

	gotBBox model.BBox
	gotCats []model.Category
}

func (f *fakePipeline) Retrieve(_ context.Context, bbox model.BBox, cats []model.Category) (model.RetrieveResult, error) {
	f.gotBBox = bbox
	f.gotCats = cats
	return f.res, f.err
}

func newHandler(r geocode.Resolver, p Retriever) *Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, r, p, nil, 15)
}

func doGet(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func sfCandidate() model.PlaceCandidate {
	return model.PlaceCandidate{
		DisplayName: "San Francisco, California, United States",
		Class:       model.ClassBoundary,
		BBox:        model.NewBBox(37.70, 37.81, -122.52, -122.35),
		Center:      model.LatLon{Lat: 37.7749, Lon: -122.4194},
	}
}

func TestResolve_ReturnsCandidates(t *testing.T) {
	fr := &fakeResolver{cands: []model.PlaceCandidate{sfCandidate()}}
	h := newHandler(fr, &fakePipeline{})

	rec := doGet(t, h.Resolve, "/resolve?q=San+Francisco")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if fr.gotName != "San Francisco" {
		t.Fatalf("resolver got %q", fr.gotName)
	}

	var out resolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || len(out.Candidates) != 1 {
		t.Fatalf("count=%d len=%d", out.Count, len(out.Candidates))
	}
	if out.Candidates[0].DisplayName != "San Francisco, California, United States" {
		t.Fatalf("display name %q", out.Candidates[0].DisplayName)
	}
}

func TestResolve_NoMatchesIsOKWithEmptyList(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})

	rec := doGet(t, h.Resolve, "/resolve?q=nowhere")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"candidates":[]`) {
		t.Fatalf("candidates should serialize as [], got %s", body)
	}
	if !strings.Contains(body, `"count":0`) {
		t.Fatalf("want count 0, got %s", body)
	}
}

func TestResolve_MissingQuery(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})
	if rec := doGet(t, h.Resolve, "/resolve"); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	if rec := doGet(t, h.Resolve, "/resolve?q=++"); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank q: status %d", rec.Code)
	}
}

func TestResolve_UpstreamFaultIs502(t *testing.T) {
	fr := &fakeResolver{resolveErr: fmt.Errorf("%w: status 503", geocode.ErrUpstream)}
	h := newHandler(fr, &fakePipeline{})

	rec := doGet(t, h.Resolve, "/resolve?q=anything")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestReverse_DefaultsZoom(t *testing.T) {
	cand := sfCandidate()
	fr := &fakeResolver{place: &cand}
	h := newHandler(fr, &fakePipeline{})

	rec := doGet(t, h.Reverse, "/reverse?lat=37.77&lon=-122.41")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if fr.gotZoom != 18 {
		t.Fatalf("zoom %d, want 18", fr.gotZoom)
	}
}

func TestReverse_NoPlaceIsNull(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})
	rec := doGet(t, h.Reverse, "/reverse?lat=0&lon=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"place":null`) {
		t.Fatalf("want null place, got %s", rec.Body.String())
	}
}

func TestReverse_ParamValidation(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})
	for _, target := range []string{
		"/reverse",
		"/reverse?lat=37.77",
		"/reverse?lat=abc&lon=1",
		"/reverse?lat=1&lon=1&zoom=abc",
	} {
		if rec := doGet(t, h.Reverse, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", target, rec.Code)
		}
	}
}

func TestReverse_BadZoomRangeIs400(t *testing.T) {
	fr := &fakeResolver{reverseErr: errors.New("zoom must be in [0,18]")}
	h := newHandler(fr, &fakePipeline{})
	rec := doGet(t, h.Reverse, "/reverse?lat=1&lon=1&zoom=99")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestPOIs_PassesParsedParamsToPipeline(t *testing.T) {
	fp := &fakePipeline{res: model.RetrieveResult{Records: []model.POIRecord{}, Total: 0}}
	h := newHandler(&fakeResolver{}, fp)

	rec := doGet(t, h.POIs, "/pois?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	if got := fp.gotBBox.OverpassString(); got != "37.70,-122.52,37.81,-122.35" {
		t.Fatalf("bbox %q", got)
	}
	if len(fp.gotCats) != 1 || fp.gotCats[0].Label != "Restaurants" {
		t.Fatalf("cats %+v", fp.gotCats)
	}
}

func TestPOIs_ParamValidation(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})
	for _, target := range []string{
		"/pois",
		"/pois?bbox=1,2,3",
		"/pois?bbox=91,92,3,4&categories=Restaurants",
		"/pois?bbox=37.70,37.81,-122.52,-122.35",
		"/pois?bbox=37.70,37.81,-122.52,-122.35&categories=Pharmacies",
		"/pois?bbox=37.70,37.81,-122.52,-122.35&categories=,",
	} {
		if rec := doGet(t, h.POIs, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", target, rec.Code)
		}
	}
}

func TestPOIs_UpstreamFaultIs502(t *testing.T) {
	fp := &fakePipeline{err: fmt.Errorf("%w: status 429", overpass.ErrUpstream)}
	h := newHandler(&fakeResolver{}, fp)

	rec := doGet(t, h.POIs, "/pois?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestPOIs_TruncationSignalPassesThrough(t *testing.T) {
	fp := &fakePipeline{res: model.RetrieveResult{Records: []model.POIRecord{}, Total: 12345, Truncated: true}}
	h := newHandler(&fakeResolver{}, fp)

	rec := doGet(t, h.POIs, "/pois?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out model.RetrieveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Truncated || out.Total != 12345 {
		t.Fatalf("truncated=%v total=%d", out.Truncated, out.Total)
	}
}

func TestRender_DefaultsViewToBBoxMidpoint(t *testing.T) {
	fp := &fakePipeline{res: model.RetrieveResult{Records: []model.POIRecord{}}}
	h := newHandler(&fakeResolver{}, fp)

	rec := doGet(t, h.Render, "/render?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		View model.ViewState `json:"view"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantLat := (37.70 + 37.81) / 2
	wantLon := (-122.52 + -122.35) / 2
	if out.View.Center.Lat != wantLat || out.View.Center.Lon != wantLon {
		t.Fatalf("center %+v", out.View.Center)
	}
	if out.View.Zoom != 15 {
		t.Fatalf("zoom %f", out.View.Zoom)
	}
}

func TestRender_CenterAndZoomOverrides(t *testing.T) {
	fp := &fakePipeline{res: model.RetrieveResult{Records: []model.POIRecord{}}}
	h := newHandler(&fakeResolver{}, fp)

	rec := doGet(t, h.Render, "/render?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants&center=37.5,-122.4&zoom=11.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		View model.ViewState `json:"view"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.View.Center != (model.LatLon{Lat: 37.5, Lon: -122.4}) {
		t.Fatalf("center %+v", out.View.Center)
	}
	if out.View.Zoom != 11.5 {
		t.Fatalf("zoom %f", out.View.Zoom)
	}
}

func TestRender_BadCenter(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{res: model.RetrieveResult{Records: []model.POIRecord{}}})
	for _, target := range []string{
		"/render?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants&center=37.5",
		"/render?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants&center=a,b",
		"/render?bbox=37.70,37.81,-122.52,-122.35&categories=Restaurants&zoom=abc",
	} {
		if rec := doGet(t, h.Render, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", target, rec.Code)
		}
	}
}

func TestCategories_ListsCatalog(t *testing.T) {
	h := newHandler(&fakeResolver{}, &fakePipeline{})

	rec := doGet(t, h.Categories, "/categories")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var out struct {
		Categories []model.Category `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Categories) != len(poi.DefaultCategories) {
		t.Fatalf("got %d categories, want %d", len(out.Categories), len(poi.DefaultCategories))
	}
	if out.Categories[0].Label != "Clinics and Hospitals" {
		t.Fatalf("first category %q", out.Categories[0].Label)
	}
}
