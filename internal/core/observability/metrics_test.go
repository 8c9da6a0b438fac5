package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/pois", "200"))
	ObserveHTTP("GET", "/pois", 200, 0.012)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/pois", "200"))
	if after != before+1 {
		t.Fatalf("counter %f -> %f", before, after)
	}
}

func TestObserveCacheOp_Outcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(cacheOpsTotal.WithLabelValues("get", "ok"))
	errBefore := testutil.ToFloat64(cacheOpsTotal.WithLabelValues("get", "error"))

	ObserveCacheOp("get", nil, 0.001)
	ObserveCacheOp("get", errors.New("timeout"), 0.25)

	if got := testutil.ToFloat64(cacheOpsTotal.WithLabelValues("get", "ok")); got != okBefore+1 {
		t.Fatalf("ok outcome %f, want %f", got, okBefore+1)
	}
	if got := testutil.ToFloat64(cacheOpsTotal.WithLabelValues("get", "error")); got != errBefore+1 {
		t.Fatalf("error outcome %f, want %f", got, errBefore+1)
	}
}

func TestCacheResultCounters(t *testing.T) {
	hitBefore := testutil.ToFloat64(cacheResults.WithLabelValues("hit"))
	missBefore := testutil.ToFloat64(cacheResults.WithLabelValues("miss"))

	IncCacheHit()
	IncCacheMiss()
	IncCacheMiss()

	if got := testutil.ToFloat64(cacheResults.WithLabelValues("hit")); got != hitBefore+1 {
		t.Fatalf("hits %f, want %f", got, hitBefore+1)
	}
	if got := testutil.ToFloat64(cacheResults.WithLabelValues("miss")); got != missBefore+2 {
		t.Fatalf("misses %f, want %f", got, missBefore+2)
	}
}

func TestAddPOIsReturned_IgnoresNonPositive(t *testing.T) {
	before := testutil.ToFloat64(poisReturnedTotal)
	AddPOIsReturned(0)
	AddPOIsReturned(-5)
	AddPOIsReturned(3)
	if got := testutil.ToFloat64(poisReturnedTotal); got != before+3 {
		t.Fatalf("pois %f, want %f", got, before+3)
	}
}

func TestExposeBuildInfo_DefaultsVersion(t *testing.T) {
	ExposeBuildInfo("")
	if got := testutil.ToFloat64(buildInfo.WithLabelValues("dev")); got != 1 {
		t.Fatalf("dev build info %f, want 1", got)
	}
	ExposeBuildInfo("1.2.3")
	if got := testutil.ToFloat64(buildInfo.WithLabelValues("1.2.3")); got != 1 {
		t.Fatalf("versioned build info %f, want 1", got)
	}
}
