// internal/broker/publisher.go
package broker

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/sarawan-tech/products-backend/internal/apperrors"
	"github.com/sarawan-tech/products-backend/internal/config"
)

// Publisher notifies the downstream ETL pipeline about sale-status changes.
// Delivery is at-least-once; consumers deduplicate by product id.
type Publisher interface {
	Publish(ctx context.Context, key string, payload interface{}) error
	Close() error
}

var ErrPublisherClosed = apperrors.New(apperrors.KindInternal, "publisher is closed")

type KafkaPublisher struct {
	writer *kafka.Writer
	closed atomic.Bool
}

func NewKafkaPublisher(cfg config.KafkaConfig) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        false,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logrus.Errorf("kafka publisher: "+msg, args...)
		}),
	}
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, payload interface{}) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInternal, "failed to encode event payload", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: body,
	})
}

func (p *KafkaPublisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}
