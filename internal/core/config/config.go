package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr      string
	LogLevel  string
	UserAgent string

	NominatimURL string
	OverpassURL  string

	H3Res       int
	MaxElements int
	RenderZoom  float64

	CacheBackend   string // redis | memory | none
	RedisAddr      string
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	MemCacheSize   int

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 12)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	return Config{
		Addr:      getenv("ADDR", ":8090"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		UserAgent: getenv("USER_AGENT", "hexpoi/1.0"),

		NominatimURL: getenv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		OverpassURL:  getenv("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),

		H3Res:       res,
		MaxElements: getint("MAX_ELEMENTS", 10000),
		RenderZoom:  getfloat("RENDER_ZOOM", 15),

		CacheBackend:   strings.ToLower(getenv("CACHE_BACKEND", "memory")),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       getduration("CACHE_TTL", 24*time.Hour),
		MemCacheSize:   getint("MEM_CACHE_SIZE", 4096),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "poi-cache-invalidation"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "hexpoi-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
