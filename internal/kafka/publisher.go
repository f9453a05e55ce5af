package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"fuelbot/internal/config"
	"fuelbot/internal/logging"
	"fuelbot/internal/models"
)

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// StateChangeEvent is published for every structure whose fuel state changed.
type StateChangeEvent struct {
	RunID         string           `json:"run_id"`
	StructureID   int64            `json:"structure_id"`
	System        string           `json:"system"`
	Facility      string           `json:"facility"`
	PreviousState models.FuelState `json:"previous_state"`
	State         models.FuelState `json:"state"`
	DaysLeft      float64          `json:"days_left"`
	OfflineAt     time.Time        `json:"offline_at"`
	Panic         bool             `json:"panic"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Publisher emits state changes to a Kafka topic, keyed by structure ID so each structure's
// history stays ordered within a partition.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *logging.Logger
}

func NewPublisher(cfg config.KafkaConfig, logger *logging.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(w, cfg.Topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *logging.Logger) *Publisher {
	return &Publisher{writer: w, topic: topic, logger: logger}
}

func (p *Publisher) Name() string {
	return "kafka"
}

// Send writes all events of the notification in one batch.
func (p *Publisher) Send(ctx context.Context, n models.Notification) error {
	msgs := make([]kafka.Message, 0, len(n.Alerts))
	for _, a := range n.Alerts {
		evt := StateChangeEvent{
			RunID:         n.RunID,
			StructureID:   a.StructureID,
			System:        a.SystemName,
			Facility:      a.FacilityName,
			PreviousState: a.PreviousState,
			State:         a.State,
			DaysLeft:      a.DaysLeft,
			OfflineAt:     a.OfflineAt,
			Panic:         n.Panic,
			Timestamp:     n.SentAt,
		}
		value, err := json.Marshal(evt)
		if err != nil {
			return fmt.Errorf("failed to encode event for structure %d: %w", a.StructureID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatInt(a.StructureID, 10)),
			Value: value,
			Time:  n.SentAt,
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to publish %d events to %s: %w", len(msgs), p.topic, err)
	}
	p.logger.Debugf("Published %d state change events to %s", len(msgs), p.topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
