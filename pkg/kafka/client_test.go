package kafka

import (
	"context"
	"testing"

	"doc-qa-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_WriterSettings(t *testing.T) {
	p := NewPublisher(config.KafkaConfig{Brokers: " broker-1:9092, ,broker-2:9092", Topic: "doc-qa-events"})
	defer p.Close()

	kp, ok := p.(*kafkaPublisher)
	require.True(t, ok)
	assert.Equal(t, "doc-qa-events", kp.writer.Topic)
	assert.Equal(t, "broker-1:9092,broker-2:9092", kp.writer.Addr.String())
	// 默认 1s 的批量等待会拖慢每次回答
	assert.Equal(t, batchTimeout, kp.writer.BatchTimeout)
	assert.LessOrEqual(t, kp.writer.BatchTimeout.Milliseconds(), int64(50))
}

func TestNopPublisher(t *testing.T) {
	p := NewNopPublisher()
	assert.NoError(t, p.Publish(context.Background(), "s1", map[string]string{"type": "x"}))
	assert.NoError(t, p.Close())
}
