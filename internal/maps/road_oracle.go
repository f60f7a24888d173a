// README: Road-distance oracle backed by the Google Maps Distance Matrix API.
package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"smartdispatch/internal/logger"
	"smartdispatch/internal/modules/location"
	"smartdispatch/internal/types"
)

// RoadOracle asks the Distance Matrix API for driving distance and duration.
// Any API failure falls back to Haversine scaled by a detour factor, so a
// simulation never stalls on a network error.
type RoadOracle struct {
	client       *maps.Client
	fallback     *location.Haversine
	detourFactor float64
	log          *logger.Logger
}

func NewRoadOracle(apiKey string, avgSpeedKmh, detourFactor float64, log *logger.Logger) (*RoadOracle, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RoadOracle{
		client:       client,
		fallback:     location.NewHaversine(avgSpeedKmh),
		detourFactor: detourFactor,
		log:          log,
	}, nil
}

func (o *RoadOracle) DistanceKm(a, b types.Point) float64 {
	km, _, err := o.lookup(a, b)
	if err != nil {
		o.log.Debugw("road distance lookup failed, using haversine fallback", "error", err)
		return o.fallback.DistanceKm(a, b) * o.detourFactor
	}
	return km
}

func (o *RoadOracle) TravelTimeMins(a, b types.Point) float64 {
	_, mins, err := o.lookup(a, b)
	if err != nil {
		o.log.Debugw("road travel time lookup failed, using haversine fallback", "error", err)
		return o.fallback.TravelTimeMins(a, b) * o.detourFactor
	}
	return mins
}

func (o *RoadOracle) lookup(a, b types.Point) (km, mins float64, err error) {
	req := &maps.DistanceMatrixRequest{
		Origins:      []string{coordString(a)},
		Destinations: []string{coordString(b)},
		Mode:         maps.TravelModeDriving,
	}

	resp, err := o.client.DistanceMatrix(context.Background(), req)
	if err != nil {
		return 0, 0, fmt.Errorf("distance matrix error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, 0, fmt.Errorf("empty distance matrix response")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, 0, fmt.Errorf("distance matrix element status %s", el.Status)
	}
	return float64(el.Distance.Meters) / 1000.0, el.Duration.Minutes(), nil
}

func coordString(p types.Point) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}
