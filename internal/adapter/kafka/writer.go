package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/trail-map-service/internal/config"
	"github.com/couchcryptid/trail-map-service/internal/mapview"
)

// Header keys set on every layer message.
const (
	HeaderBuildID = "build_id"
	HeaderLabel   = "label"
	HeaderBuiltAt = "built_at"
	HeaderStale   = "stale"
)

// Writer publishes each layer of a built view to a Kafka topic, keyed by
// marker type so compacted topics keep the latest layer per type.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured layer topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaLayerTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every layer and writes them in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, view *mapview.View) error {
	if len(view.Layers) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(view.Layers))
	for i := range view.Layers {
		msg, err := serializeLayer(view, view.Layers[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write layers: %w", err)
	}
	w.logger.Debug("layers published", "topic", w.writer.Topic, "count", len(msgs), "build_id", view.BuildID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeLayer marshals one layer's GeoJSON FeatureCollection into a Kafka message.
func serializeLayer(view *mapview.View, layer mapview.Layer) (kafkago.Message, error) {
	data, err := json.Marshal(layer.Features)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize layer %q: %w", layer.Typ, err)
	}
	return kafkago.Message{
		Key:   []byte(layer.Typ),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderBuildID, Value: []byte(view.BuildID)},
			{Key: HeaderLabel, Value: []byte(layer.Label)},
			{Key: HeaderBuiltAt, Value: []byte(view.BuiltAt.Format(time.RFC3339))},
			{Key: HeaderStale, Value: []byte(strconv.FormatBool(view.Stale))},
		},
	}, nil
}
