// README: Config loader with env defaults for dispatch, oracle, and infra settings.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Dispatch holds every tunable of the auction and the simulator clock.
// The record is immutable after Load; constructors receive it by value.
type Dispatch struct {
	BatchWindowMins         float64
	HighLoadThreshold       float64
	CombinatorialWindowMins int
	MaxBundleSize           int
	MaxPickupDistanceKm     float64
	WDistance               float64
	WDelay                  float64
	BundleDiscountPerOrder  float64
	MaxDeliveryTimeMins     float64
	ServiceTimeMins         float64
	AvgSpeedKmh             float64
	PenaltyMotorbike        float64
	PenaltyBike             float64
	PenaltyCar              float64
	DefaultCapacity         int
	ShiftStartMin           int
	ShiftEndMin             int
}

type Config struct {
	Dispatch Dispatch
	Oracle   struct {
		UseRoadDistance bool
		MapsAPIKey      string
		DetourFactor    float64
	}
	Redis struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	HTTP struct {
		Addr string
	}
	Log struct {
		Level string
		Env   string
	}
	DataDir string
}

// DefaultDispatch returns the dispatch parameters with their stock values.
func DefaultDispatch() Dispatch {
	return Dispatch{
		BatchWindowMins:         1.0,
		HighLoadThreshold:       2.0,
		CombinatorialWindowMins: 5,
		MaxBundleSize:           2,
		MaxPickupDistanceKm:     5.0,
		WDistance:               1.0,
		WDelay:                  1.5,
		BundleDiscountPerOrder:  0.25,
		MaxDeliveryTimeMins:     52.0,
		ServiceTimeMins:         5.0,
		AvgSpeedKmh:             35.0,
		PenaltyMotorbike:        1.0,
		PenaltyBike:             1.2,
		PenaltyCar:              1.4,
		DefaultCapacity:         2,
		ShiftStartMin:           17 * 60,
		ShiftEndMin:             22 * 60,
	}
}

func Load() (Config, error) {
	var cfg Config
	d := DefaultDispatch()
	d.BatchWindowMins = envOrDefaultFloat("DISPATCH_BATCH_WINDOW_MINS", d.BatchWindowMins)
	d.HighLoadThreshold = envOrDefaultFloat("DISPATCH_HIGH_LOAD_THRESHOLD", d.HighLoadThreshold)
	d.CombinatorialWindowMins = envOrDefaultInt("DISPATCH_COMBINATORIAL_WINDOW_MINS", d.CombinatorialWindowMins)
	d.MaxBundleSize = envOrDefaultInt("DISPATCH_MAX_BUNDLE_SIZE", d.MaxBundleSize)
	d.MaxPickupDistanceKm = envOrDefaultFloat("DISPATCH_MAX_PICKUP_DISTANCE_KM", d.MaxPickupDistanceKm)
	d.WDistance = envOrDefaultFloat("DISPATCH_W_DISTANCE", d.WDistance)
	d.WDelay = envOrDefaultFloat("DISPATCH_W_DELAY", d.WDelay)
	d.BundleDiscountPerOrder = envOrDefaultFloat("DISPATCH_BUNDLE_DISCOUNT_PER_ORDER", d.BundleDiscountPerOrder)
	d.MaxDeliveryTimeMins = envOrDefaultFloat("DISPATCH_MAX_DELIVERY_TIME_MINS", d.MaxDeliveryTimeMins)
	d.ServiceTimeMins = envOrDefaultFloat("DISPATCH_SERVICE_TIME_MINS", d.ServiceTimeMins)
	d.AvgSpeedKmh = envOrDefaultFloat("DISPATCH_AVG_SPEED_KMH", d.AvgSpeedKmh)
	d.PenaltyMotorbike = envOrDefaultFloat("DISPATCH_PENALTY_MOTORBIKE", d.PenaltyMotorbike)
	d.PenaltyBike = envOrDefaultFloat("DISPATCH_PENALTY_BIKE", d.PenaltyBike)
	d.PenaltyCar = envOrDefaultFloat("DISPATCH_PENALTY_CAR", d.PenaltyCar)
	d.DefaultCapacity = envOrDefaultInt("DISPATCH_DEFAULT_CAPACITY", d.DefaultCapacity)
	d.ShiftStartMin = envOrDefaultInt("DISPATCH_SHIFT_START_MIN", d.ShiftStartMin)
	d.ShiftEndMin = envOrDefaultInt("DISPATCH_SHIFT_END_MIN", d.ShiftEndMin)
	cfg.Dispatch = d

	cfg.Oracle.UseRoadDistance = envOrDefaultBool("DISPATCH_USE_ROAD_DISTANCE", false)
	cfg.Oracle.MapsAPIKey = os.Getenv("GOOGLE_MAPS_API_KEY")
	cfg.Oracle.DetourFactor = envOrDefaultFloat("DISPATCH_DETOUR_FACTOR", 1.4)

	cfg.Redis.Addr = os.Getenv("DISPATCH_REDIS_ADDR")
	cfg.DB.DSN = os.Getenv("DISPATCH_DB_DSN")
	cfg.HTTP.Addr = envOrDefault("DISPATCH_HTTP_ADDR", ":8080")
	cfg.Log.Level = envOrDefault("DISPATCH_LOG_LEVEL", "info")
	cfg.Log.Env = envOrDefault("DISPATCH_ENV", "development")
	cfg.DataDir = envOrDefault("DISPATCH_DATA_DIR", "data")
	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}
