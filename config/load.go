package config

import (
	"log/slog"
	"os"
	"strconv"
)

func Load() App {
	cfg := App{
		Port:               getenv("APP_PORT", "8080"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          getenv("JWT_SECRET", "local_dev_secret"),
		RoutingBaseURL:     getenv("ROUTING_BASE_URL", "https://router.project-osrm.org"),
		GeocoderBaseURL:    getenv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		Env:                getenv("APP_ENV", "dev"),
		ReturnDeadlineDays: getenvInt("RETURN_DEADLINE_DAYS", 30),
		DailyLateFee:       getenvFloat("DAILY_LATE_FEE", 1.00),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("bad int env, using default", "key", k, "value", v)
	}
	return def
}

func getenvFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		slog.Warn("bad float env, using default", "key", k, "value", v)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
