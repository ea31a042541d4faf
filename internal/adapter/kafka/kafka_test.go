package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/domain"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
)

func buildView(t *testing.T) *mapview.View {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.June, 1, 9, 30, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	var features []domain.Feature
	for _, attrs := range []map[string]string{
		{"typ": "site", "name": "Camp A", "lat": "48.0", "lng": "-123.0", "stedetails": "info ?page_id=42"},
		{"typ": "access", "name": "Dock B", "lat": "48.1", "lng": "-123.1", "stedetails": ""},
		{"typ": "site", "name": "Camp C", "lat": "47.5", "lng": "-122.5", "stedetails": ""},
	} {
		f, err := domain.BuildFeature(domain.NewMarkerRecord(attrs), domain.DefaultLinkBaseURL)
		require.NoError(t, err)
		features = append(features, f)
	}

	b, err := mapview.NewBuilder(domain.DefaultStyles(), mapview.DefaultOptions(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return b.Build(features)
}

func TestSerializeLayer(t *testing.T) {
	view := buildView(t)
	layer, ok := view.Layer("site")
	require.True(t, ok)

	msg, err := serializeLayer(view, layer)
	require.NoError(t, err)

	assert.Equal(t, []byte("site"), msg.Key)

	var fc domain.FeatureCollection
	require.NoError(t, json.Unmarshal(msg.Value, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, "Camp A", fc.Features[0].Name())
	assert.Equal(t, [2]float64{-123.0, 48.0}, fc.Features[0].Geometry.Coordinates)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, view.BuildID, headers[HeaderBuildID])
	assert.Equal(t, "WWTA Campsite", headers[HeaderLabel])
	assert.Equal(t, "2024-06-01T09:30:00Z", headers[HeaderBuiltAt])
	assert.Equal(t, "false", headers[HeaderStale])
}

func TestSerializeLayer_StaleView(t *testing.T) {
	view := buildView(t)
	view.Stale = true

	msg, err := serializeLayer(view, view.Layers[1])
	require.NoError(t, err)

	assert.Equal(t, []byte("access"), msg.Key)
	assert.Contains(t, msg.Headers, kafkagoHeader(HeaderStale, "true"))
}

func TestNewWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaLayerTopic: "map-layers"}
	w := NewWriter(cfg, slog.Default())
	t.Cleanup(func() { _ = w.Close() })

	assert.Equal(t, "map-layers", w.writer.Topic)
}

func TestPublish_EmptyViewWritesNothing(t *testing.T) {
	// No brokers are reachable; an empty view must not attempt a write.
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaLayerTopic: "map-layers"}
	w := NewWriter(cfg, slog.Default())
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.Publish(context.Background(), &mapview.View{}))
}

func kafkagoHeader(key, value string) kafkago.Header {
	return kafkago.Header{Key: key, Value: []byte(value)}
}
