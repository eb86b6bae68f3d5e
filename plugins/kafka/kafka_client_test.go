package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

func TestTopicConfigDefaults(t *testing.T) {
	cfg, err := topicConfig(client.TopicSpec{Name: "events"})
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.NumPartitions)
	assert.Equal(t, 1, cfg.ReplicationFactor)

	cfg, err = topicConfig(client.TopicSpec{Name: "events", Partitions: 6, Replication: 3})
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.NumPartitions)
	assert.Equal(t, 3, cfg.ReplicationFactor)

	_, err = topicConfig(client.TopicSpec{})
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)
}

func TestTopicNamesSkipsInternal(t *testing.T) {
	names := topicNames([]kafka.Topic{
		{Name: "orders"},
		{Name: "__consumer_offsets", Internal: true},
		{Name: "_schemas"},
		{Name: "audit"},
	})
	assert.Equal(t, []string{"audit", "orders"}, names)
}

func TestMessageConversion(t *testing.T) {
	now := time.Now()
	msgs := toKafka([]client.Message{{Key: []byte("k"), Value: []byte("v"), Time: now}})
	require.Len(t, msgs, 1)
	assert.Equal(t, []byte("k"), msgs[0].Key)

	m := fromKafka(kafka.Message{Value: []byte("v"), Partition: 2, Offset: 9, Time: now})
	assert.Equal(t, 2, m.Partition)
	assert.Equal(t, int64(9), m.Offset)
}

func TestRejectsInvalidSource(t *testing.T) {
	c := NewQueueClient().(*QueueClient)
	ctx := context.Background()

	_, err := c.TestCon(ctx, &source.KafkaSource{})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	_, err = c.ListTopics(ctx, &source.RedisSource{Addr: "x"})
	require.ErrorIs(t, err, plugin.ErrInvalidSource)

	err = c.Produce(ctx, &source.KafkaSource{Brokers: []string{"127.0.0.1:9092"}}, "")
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)

	_, err = c.Consume(ctx, &source.KafkaSource{Brokers: []string{"127.0.0.1:9092"}}, "t", 0)
	require.ErrorIs(t, err, plugin.ErrInvalidArgument)
}

func TestWithConsumeTimeout(t *testing.T) {
	ctx, cancel := withConsumeTimeout(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(client.DefaultConsumeTimeout), deadline, time.Second)
}
