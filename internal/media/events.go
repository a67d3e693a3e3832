package media

import (
	"context"
	"encoding/json"
	"time"
)

// StatusEvent 状态变更事件
type StatusEvent struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusPublisher 状态事件发布器；发布失败由调用方记日志，不影响编码流程
type StatusPublisher interface {
	Publish(ctx context.Context, name string, status EncodingStatus) error
}

// MessageProducer 发布事件需要的最小生产者能力，resource.KafkaResource满足
type MessageProducer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

type kafkaStatusPublisher struct {
	producer MessageProducer
	topic    string
}

// NewKafkaStatusPublisher 创建基于Kafka的状态事件发布器
func NewKafkaStatusPublisher(producer MessageProducer, topic string) StatusPublisher {
	return &kafkaStatusPublisher{producer: producer, topic: topic}
}

func (p *kafkaStatusPublisher) Publish(ctx context.Context, name string, status EncodingStatus) error {
	event := StatusEvent{
		Name:      name,
		Status:    status.String(),
		Timestamp: time.Now(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Produce(ctx, p.topic, []byte(name), value)
}
