package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

// MarkerTransformer implements Transformer using domain transform functions
// with optional geocoding enrichment.
type MarkerTransformer struct {
	linkBase string
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates a MarkerTransformer. An empty linkBase uses
// domain.DefaultLinkBaseURL. Pass a nil geocoder to disable geocoding enrichment.
func NewTransformer(linkBase string, geocoder domain.Geocoder, logger *slog.Logger) *MarkerTransformer {
	if linkBase == "" {
		linkBase = domain.DefaultLinkBaseURL
	}
	return &MarkerTransformer{
		linkBase: linkBase,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *MarkerTransformer) Transform(ctx context.Context, rec domain.MarkerRecord) (domain.Feature, error) {
	f, err := domain.BuildFeature(rec, t.linkBase)
	if err != nil {
		return domain.Feature{}, err
	}
	return domain.EnrichWithGeocoding(ctx, f, t.geocoder, t.logger), nil
}
