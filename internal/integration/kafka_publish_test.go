//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trail-map-service/internal/adapter/kafka"
	"github.com/couchcryptid/trail-map-service/internal/adapter/source"
	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/domain"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
	"github.com/couchcryptid/trail-map-service/internal/observability"
	"github.com/couchcryptid/trail-map-service/internal/pipeline"
)

const testLayerTopic = "test-map-layers"

type layerMessage struct {
	Key      string
	Headers  map[string]string
	Features domain.FeatureCollection
}

func readLayer(ctx context.Context, t *testing.T, consumer *kafkago.Reader) layerMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from layer topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var fc domain.FeatureCollection
	require.NoError(t, json.Unmarshal(msg.Value, &fc), "unmarshal layer message")

	return layerMessage{Key: string(msg.Key), Headers: headers, Features: fc}
}

// TestPipelinePublishesLayers loads the bundled marker document through the
// full pipeline and verifies one message per layer reaches Kafka.
func TestPipelinePublishesLayers(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLayerTopic)

	cfg := &config.Config{
		KafkaBrokers:    []string{broker},
		KafkaLayerTopic: testLayerTopic,
	}

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	builder, err := mapview.NewBuilder(domain.DefaultStyles(), mapview.DefaultOptions(), discardLogger())
	require.NoError(t, err)

	client := source.NewClient(filepath.Join("..", "..", "resources", "markers.xml"), 5*time.Second, discardLogger())
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(client, pipeline.NewTransformer("", nil, discardLogger()), builder, discardLogger(), metrics,
		pipeline.WithPublisher(writer),
	)

	view, err := p.Load(ctx)
	require.NoError(t, err)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testLayerTopic,
		GroupID:     fmt.Sprintf("test-layers-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	received := map[string]layerMessage{}
	for len(received) < len(view.Layers) {
		lm := readLayer(ctx, t, consumer)
		received[lm.Key] = lm
	}

	require.Contains(t, received, "site")
	require.Contains(t, received, "access")

	site := received["site"]
	assert.Equal(t, view.BuildID, site.Headers[kafka.HeaderBuildID])
	assert.Equal(t, "WWTA Campsite", site.Headers[kafka.HeaderLabel])
	assert.Equal(t, "false", site.Headers[kafka.HeaderStale])
	_, err = time.Parse(time.RFC3339, site.Headers[kafka.HeaderBuiltAt])
	assert.NoError(t, err, "built_at should be valid RFC3339")

	assert.Equal(t, "FeatureCollection", site.Features.Type)
	assert.Len(t, site.Features.Features, 3)
	assert.Len(t, received["access"].Features.Features, 2)
	for _, f := range site.Features.Features {
		assert.Contains(t, f.Tooltip(), domain.DefaultLinkBaseURL)
	}
}

// TestReloadRepublishes verifies every reload publishes a fresh build.
func TestReloadRepublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testLayerTopic)

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaLayerTopic: testLayerTopic}, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	builder, err := mapview.NewBuilder(domain.DefaultStyles(), mapview.DefaultOptions(), discardLogger())
	require.NoError(t, err)

	client := source.NewClient(filepath.Join("..", "..", "resources", "markers.xml"), 5*time.Second, discardLogger())
	p := pipeline.New(client, pipeline.NewTransformer("", nil, discardLogger()), builder, discardLogger(),
		observability.NewMetricsForTesting(), pipeline.WithPublisher(writer))

	first, err := p.Load(ctx)
	require.NoError(t, err)
	second, err := p.Load(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.BuildID, second.BuildID)

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testLayerTopic,
		GroupID:     fmt.Sprintf("test-reload-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	builds := map[string]int{}
	for range len(first.Layers) + len(second.Layers) {
		lm := readLayer(ctx, t, consumer)
		builds[lm.Headers[kafka.HeaderBuildID]]++
	}
	assert.Equal(t, len(first.Layers), builds[first.BuildID])
	assert.Equal(t, len(second.Layers), builds[second.BuildID])
}
