package keys

import (
	"regexp"
	"strings"
	"testing"
	"unicode"
)

func TestDeterminism_SameInputsSameKey(t *testing.T) {
	k1 := Key("nominatim.search", "San Francisco")
	k2 := Key("nominatim.search", "San Francisco")
	if k1 != k2 {
		t.Fatalf("determinism failed:\n k1=%s\n k2=%s", k1, k2)
	}
}

func TestNormalization_WhitespaceVariantsProduceSameKey(t *testing.T) {
	k1 := Key("overpass.query", "node[amenity=restaurant]\n\t (1,2,3,4);")
	k2 := Key("overpass.query", "node[amenity=restaurant] (1,2,3,4);")
	if k1 != k2 {
		t.Fatalf("normalized keys differ:\n k1=%s\n k2=%s", k1, k2)
	}
	if !regexp.MustCompile(`^[A-Za-z0-9:_=\-.,]+$`).MatchString(k1) {
		t.Fatalf("key contains disallowed characters: %s", k1)
	}
}

func TestDifference_DifferentArgsAreDifferent(t *testing.T) {
	k1 := Key("nominatim.search", "Paris")
	k2 := Key("nominatim.search", "Berlin")
	if k1 == k2 {
		t.Fatalf("different args must produce different keys")
	}
	if Key("nominatim.search", "x") == Key("nominatim.reverse", "x") {
		t.Fatalf("different methods must produce different keys")
	}
}

func TestArgBoundary_NotAmbiguous(t *testing.T) {
	if Key("m", "ab", "c") == Key("m", "a", "bc") {
		t.Fatalf("argument boundaries collapsed")
	}
	if Key("m", "a|b") == Key("m", "a", "b") {
		t.Fatalf("separator characters in args must not collide with boundaries")
	}
}

func TestUnicodeSafety_NoPanicAndHashSuffixPresent(t *testing.T) {
	k := Key("nominatim.search", "Göteborg 雪")

	for _, r := range k {
		if r > unicode.MaxASCII {
			t.Fatalf("non-ASCII rune leaked into key: %q in %s", r, k)
		}
	}

	if m := regexp.MustCompile(`:f=([0-9a-f]{16})$`).FindStringSubmatch(k); len(m) != 2 {
		t.Fatalf("missing or invalid :f=<hex64> suffix in key: %s", k)
	}
	if !strings.HasPrefix(k, "hexpoi:nominatim.search:") {
		t.Fatalf("missing prefix in key: %s", k)
	}
}

func TestLongArgs_ReadableSegmentTruncated(t *testing.T) {
	long := strings.Repeat("node[amenity=restaurant](1,2,3,4);", 50)
	k := Key("overpass.query", long)
	if len(k) > 220 {
		t.Fatalf("key too long (%d): %s", len(k), k[:80])
	}
}
