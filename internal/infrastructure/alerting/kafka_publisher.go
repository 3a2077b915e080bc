// Package alerting implements the AlertPublisher interface using Kafka.
package alerting

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/sentinel/internal/config"
	"github.com/turtacn/sentinel/internal/domain/models"
	"github.com/turtacn/sentinel/internal/domain/service"
	"github.com/turtacn/sentinel/pkg/constants"
	"github.com/turtacn/sentinel/pkg/logger"
)

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher is a Kafka-backed implementation of the AlertPublisher.
// The writer runs in async mode so detection never waits on the broker;
// delivery failures surface through the completion callback.
type KafkaPublisher struct {
	writer  messageWriter
	metrics service.Metrics
	logger  logger.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher.
func NewKafkaPublisher(cfg config.KafkaConfig, metrics service.Metrics, log logger.Logger) service.AlertPublisher {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	p := &KafkaPublisher{
		metrics: metrics,
		logger:  log.WithComponent("KafkaPublisher"),
	}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AlertTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Async:        true,
		Completion:   p.onCompletion,
	}
	return p
}

func newKafkaPublisherWithWriter(w messageWriter, metrics service.Metrics, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, metrics: metrics, logger: log.WithComponent("KafkaPublisher")}
}

// Publish sends an alert keyed by tenant and client so one client's alerts stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, alert models.Alert) error {
	bytes, err := json.Marshal(alert)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal alert", err)
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.TenantID + ":" + alert.ClientID),
		Value: bytes,
		Headers: []kafka.Header{
			{Key: "alert_type", Value: []byte(alert.Type)},
		},
	})
}

func (p *KafkaPublisher) onCompletion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range messages {
		alertType := constants.AlertType(headerValue(m, "alert_type"))
		p.metrics.RecordAlertFailure(alertType)
		p.logger.Error(context.Background(), "failed to deliver alert to Kafka", err,
			logger.String("key", string(m.Key)), logger.String("alert_type", string(alertType)))
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Close flushes pending messages and closes the underlying Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops every alert. Used when Kafka is disabled.
type NoopPublisher struct {
	logger logger.Logger
}

// NewNoopPublisher creates a NoopPublisher that logs alerts at debug level.
func NewNoopPublisher(log logger.Logger) *NoopPublisher {
	return &NoopPublisher{logger: log.WithComponent("NoopPublisher")}
}

func (p *NoopPublisher) Publish(ctx context.Context, alert models.Alert) error {
	p.logger.Debug(ctx, "alert publishing disabled, dropping alert",
		logger.Fields{"alert_type": string(alert.Type), "tenant_id": alert.TenantID, "client_id": alert.ClientID})
	return nil
}

func (p *NoopPublisher) Close() error { return nil }

var (
	_ service.AlertPublisher = (*KafkaPublisher)(nil)
	_ service.AlertPublisher = (*NoopPublisher)(nil)
)
