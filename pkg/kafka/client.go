// Package kafka 提供了与 Kafka 消息队列交互的功能。
package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"doc-qa-go/internal/config"
	"doc-qa-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// Publisher 发布领域事件。
type Publisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
	Close() error
}

// batchTimeout 控制单条事件在发送前的最长等待时间，事件在请求路径上同步发布。
const batchTimeout = 10 * time.Millisecond

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher 初始化 Kafka 生产者。
func NewPublisher(cfg config.KafkaConfig) Publisher {
	var brokers []string
	for _, b := range strings.Split(cfg.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: batchTimeout,
	}
	log.Infof("Kafka 生产者初始化成功, topic: %s", cfg.Topic)
	return &kafkaPublisher{writer: w}
}

// Publish 以 key 作为消息键发送一条 JSON 事件，同一会话的事件落在同一分区。
func (p *kafkaPublisher) Publish(ctx context.Context, key string, event interface{}) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: value,
	})
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type nopPublisher struct{}

// NewNopPublisher 返回一个丢弃所有事件的 Publisher，未启用 Kafka 时使用。
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (nopPublisher) Close() error { return nil }
