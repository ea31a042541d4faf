package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding adds a placeName property from a reverse geocode of the
// feature's point. A nil geocoder, a failed lookup, or an empty result leaves
// the feature unchanged (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, f Feature, geocoder Geocoder, logger *slog.Logger) Feature {
	if geocoder == nil {
		return f
	}

	result, err := geocoder.ReverseGeocode(ctx, f.Lat(), f.Lng())
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"name", f.Name(),
			"lat", f.Lat(),
			"lng", f.Lng(),
			"error", err,
		)
		return f
	}
	if result.PlaceName == "" {
		return f
	}

	f = f.clone()
	f.Properties[PropPlaceName] = result.PlaceName
	return f
}
