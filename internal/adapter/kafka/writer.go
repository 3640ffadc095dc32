package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/solar-collector-etl/internal/config"
	"github.com/couchcryptid/solar-collector-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Header keys set on every published record.
const (
	HeaderObjectType = "object_type"
	HeaderRunID      = "run_id"
	HeaderCatalogRow = "catalog_row"
)

// Writer publishes performance records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer     *kafkago.Writer
	objectType string
	runID      string
	logger     *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Every
// message carries runID and objectType as headers.
func NewWriter(cfg *config.Config, objectType, runID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, objectType: objectType, runID: runID, logger: logger}
}

// LoadBatch serializes and publishes the records in a single WriteMessages
// call. Records are keyed by collector name.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.CollectorPerformance) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], w.objectType, w.runID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages to %s: %w", len(msgs), w.writer.Topic, err)
	}
	w.logger.Info("records published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CollectorPerformance into a Kafka message.
func serializeToMessage(rec domain.CollectorPerformance, objectType, runID string) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize collector performance %q: %w", rec.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Name),
		Value: data,
		Headers: []kafkago.Header{
			{Key: HeaderObjectType, Value: []byte(objectType)},
			{Key: HeaderRunID, Value: []byte(runID)},
			{Key: HeaderCatalogRow, Value: []byte(strconv.Itoa(rec.Position))},
		},
	}, nil
}
