package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// QueueClient Kafka 消息队列客户端。管理操作走 kafka.Client，读写各自创建短生命周期的 Reader/Writer
type QueueClient struct {
	log logger.PluginLogger
}

var _ client.QueueClient = (*QueueClient)(nil)

func NewQueueClient() any {
	return &QueueClient{log: logger.Nop().Plugin()}
}

func (c *QueueClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

func brokers(src source.Source) (*source.KafkaSource, error) {
	ks, err := source.As[*source.KafkaSource](src)
	if err != nil {
		return nil, err
	}
	if len(ks.Brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers are empty", plugin.ErrInvalidSource)
	}
	return ks, nil
}

func adminClient(ks *source.KafkaSource) *kafka.Client {
	return &kafka.Client{
		Addr: kafka.TCP(ks.Brokers...),
	}
}

func (c *QueueClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	ks, err := brokers(src)
	if err != nil {
		return false, err
	}
	resp, err := adminClient(ks).Metadata(ctx, &kafka.MetadataRequest{Topics: []string{}})
	if err != nil {
		return false, fmt.Errorf("kafka metadata: %w", err)
	}
	return len(resp.Brokers) > 0, nil
}

// ListTopics 不包含以下划线开头的内部主题
func (c *QueueClient) ListTopics(ctx context.Context, src source.Source) ([]string, error) {
	ks, err := brokers(src)
	if err != nil {
		return nil, err
	}
	resp, err := adminClient(ks).Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return nil, fmt.Errorf("kafka metadata: %w", err)
	}
	return topicNames(resp.Topics), nil
}

func topicNames(topics []kafka.Topic) []string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		if t.Internal || strings.HasPrefix(t.Name, "_") {
			continue
		}
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

func (c *QueueClient) CreateTopic(ctx context.Context, src source.Source, spec client.TopicSpec) error {
	ks, err := brokers(src)
	if err != nil {
		return err
	}
	cfg, err := topicConfig(spec)
	if err != nil {
		return err
	}
	resp, err := adminClient(ks).CreateTopics(ctx, &kafka.CreateTopicsRequest{
		Topics: []kafka.TopicConfig{cfg},
	})
	if err != nil {
		return fmt.Errorf("kafka create topic %s: %w", spec.Name, err)
	}
	if err := resp.Errors[spec.Name]; err != nil {
		return fmt.Errorf("kafka create topic %s: %w", spec.Name, err)
	}
	c.log.Info("Created topic", zap.String("topic", spec.Name), zap.Int("partitions", cfg.NumPartitions))
	return nil
}

// topicConfig 分区数与副本数缺省为 1
func topicConfig(spec client.TopicSpec) (kafka.TopicConfig, error) {
	if spec.Name == "" {
		return kafka.TopicConfig{}, fmt.Errorf("%w: topic name is empty", plugin.ErrInvalidArgument)
	}
	cfg := kafka.TopicConfig{
		Topic:             spec.Name,
		NumPartitions:     spec.Partitions,
		ReplicationFactor: spec.Replication,
	}
	if cfg.NumPartitions <= 0 {
		cfg.NumPartitions = 1
	}
	if cfg.ReplicationFactor <= 0 {
		cfg.ReplicationFactor = 1
	}
	return cfg, nil
}

func (c *QueueClient) Produce(ctx context.Context, src source.Source, topic string, msgs ...client.Message) error {
	ks, err := brokers(src)
	if err != nil {
		return err
	}
	if topic == "" {
		return fmt.Errorf("%w: topic is empty", plugin.ErrInvalidArgument)
	}
	if len(msgs) == 0 {
		return nil
	}

	w := &kafka.Writer{
		Addr:     kafka.TCP(ks.Brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer w.Close()

	if err := w.WriteMessages(ctx, toKafka(msgs)...); err != nil {
		return fmt.Errorf("kafka produce to %s: %w", topic, err)
	}
	return nil
}

func toKafka(msgs []client.Message) []kafka.Message {
	out := make([]kafka.Message, len(msgs))
	for i, m := range msgs {
		out[i] = kafka.Message{Key: m.Key, Value: m.Value, Time: m.Time}
	}
	return out
}

func fromKafka(m kafka.Message) client.Message {
	return client.Message{
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		Time:      m.Time,
	}
}

// Consume 从分区 0 的最早位点读取，不提交消费位点
func (c *QueueClient) Consume(ctx context.Context, src source.Source, topic string, max int) ([]client.Message, error) {
	ks, err := brokers(src)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: topic is empty", plugin.ErrInvalidArgument)
	}
	if max <= 0 {
		return nil, fmt.Errorf("%w: max must be positive", plugin.ErrInvalidArgument)
	}

	ctx, cancel := withConsumeTimeout(ctx)
	defer cancel()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   ks.Brokers,
		Topic:     topic,
		Partition: 0,
		MaxBytes:  10e6,
	})
	defer r.Close()
	if err := r.SetOffset(kafka.FirstOffset); err != nil {
		return nil, fmt.Errorf("kafka set offset: %w", err)
	}

	var out []client.Message
	for len(out) < max {
		m, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return out, fmt.Errorf("kafka consume from %s: %w", topic, err)
		}
		out = append(out, fromKafka(m))
	}
	return out, nil
}

func withConsumeTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, client.DefaultConsumeTimeout)
}
