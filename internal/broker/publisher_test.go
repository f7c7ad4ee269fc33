// internal/broker/publisher_test.go
package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarawan-tech/products-backend/internal/config"
)

func TestKafkaPublisherRejectsAfterClose(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "products.updated",
	})

	require.NoError(t, p.Close())

	err := p.Publish(context.Background(), "key", map[string]string{"id": "abc"})
	assert.ErrorIs(t, err, ErrPublisherClosed)
}

func TestKafkaPublisherCloseIsIdempotent(t *testing.T) {
	p := NewKafkaPublisher(config.KafkaConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "products.updated",
	})

	require.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}
