package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookshop/internal/domain"
)

// Topic для событий жизненного цикла заказов книжного магазина.
const TopicOrderEvents = "bookshop.order.events"

// Producer публикует события заказов в Kafka.
// Ключом сообщения служит идентификатор заказа, так что события одного
// заказа попадают в одну партицию и сохраняют порядок.
type Producer struct {
	producer sarama.SyncProducer
	logger   *log.Entry
}

// NewProducer создает идемпотентный sync-producer.
func NewProducer(brokers []string) (*Producer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll // Wait for all in-sync replicas
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Idempotent = true // Включаем идемпотентность
	config.Net.MaxOpenRequests = 1    // Для идемпотентности

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return &Producer{
		producer: producer,
		logger:   log.WithField("component", "kafka-producer"),
	}, nil
}

var _ domain.EventPublisher = (*Producer)(nil)

// PublishOrderEvent отправляет событие заказа в TopicOrderEvents.
func (p *Producer) PublishOrderEvent(event domain.OrderEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     TopicOrderEvents,
		Key:       sarama.StringEncoder(event.OrderID),
		Value:     sarama.ByteEncoder(eventData),
		Timestamp: event.Timestamp,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).WithFields(log.Fields{
			"event_type": event.Type,
			"order_id":   event.OrderID,
		}).Error("failed to send order event to kafka")
		return fmt.Errorf("failed to send order event: %w", err)
	}

	p.logger.WithFields(log.Fields{
		"event_type": event.Type,
		"order_id":   event.OrderID,
		"partition":  partition,
		"offset":     offset,
	}).Debug("order event sent to kafka")

	return nil
}

// Close закрывает producer.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}
	return nil
}
