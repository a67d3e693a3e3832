package resource

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	kafka "github.com/segmentio/kafka-go"

	"github.com/danghoangviet/Twitter-Api-Clone/pkg/config"
	"github.com/danghoangviet/Twitter-Api-Clone/pkg/logger"
)

// KafkaResource Kafka生产者资源管理器
type KafkaResource struct {
	brokers  []string
	clientID string
	writers  sync.Map // topic -> *kafka.Writer
}

// NewKafkaResource 创建Kafka客户端
func NewKafkaResource(cfg *config.KafkaConfig) *KafkaResource {
	r := &KafkaResource{
		brokers:  cfg.BootstrapServers,
		clientID: cfg.ClientID,
	}
	logger.Infof("Kafka resource opened brokers=%v client_id=%s", r.brokers, r.clientID)
	return r
}

// Writer 按topic复用kafka writer
func (r *KafkaResource) Writer(topic string) *kafka.Writer {
	if v, ok := r.writers.Load(topic); ok {
		return v.(*kafka.Writer)
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(r.brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
	actual, _ := r.writers.LoadOrStore(topic, w)
	return actual.(*kafka.Writer)
}

// Produce 向指定topic写入一条消息
func (r *KafkaResource) Produce(ctx context.Context, topic string, key, value []byte) error {
	w := r.Writer(topic)
	msg := kafka.Message{Key: key, Value: value, Time: time.Now()}
	return w.WriteMessages(ctx, msg)
}

// EnsureTopic creates the topic if it does not exist.
func (r *KafkaResource) EnsureTopic(topic string, numPartitions, replicationFactor int) error {
	if len(r.brokers) == 0 {
		return nil
	}
	conn, err := kafka.Dial("tcp", r.brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	addr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	cc, err := kafka.Dial("tcp", addr)
	if err != nil {
		return err
	}
	defer cc.Close()
	return cc.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	})
}

// Close 关闭所有writer
func (r *KafkaResource) Close() {
	r.writers.Range(func(key, value interface{}) bool {
		if w, ok := value.(*kafka.Writer); ok {
			_ = w.Close()
		}
		return true
	})
}
