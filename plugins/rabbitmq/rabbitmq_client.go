package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/longkeyy/go-dsloader/common/client"
	"github.com/longkeyy/go-dsloader/common/logger"
	"github.com/longkeyy/go-dsloader/common/plugin"
	"github.com/longkeyy/go-dsloader/common/source"
)

// Dialer 打开 AMQP 连接，测试中替换
type Dialer func(url string) (Connection, error)

// Connection amqp.Connection 的最小子集
type Connection interface {
	Channel() (Channel, error)
	Close() error
}

// Channel amqp.Channel 的最小子集
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Get(queue string, autoAck bool) (amqp.Delivery, bool, error)
	Close() error
}

// QueueClient RabbitMQ 客户端，主题即队列，每次操作新建连接
type QueueClient struct {
	dial Dialer
	log  logger.PluginLogger
}

var _ client.QueueClient = (*QueueClient)(nil)

func NewQueueClient() any {
	return &QueueClient{dial: dial, log: logger.Nop().Plugin()}
}

func (c *QueueClient) Init(env *plugin.Env) error {
	if env.Logger != nil {
		c.log = env.Logger
	}
	return nil
}

type amqpConnection struct {
	*amqp.Connection
}

func (c amqpConnection) Channel() (Channel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConnection{conn}, nil
}

// open 返回的 closeFn 依次关闭 channel 与连接
func (c *QueueClient) open(src source.Source) (Channel, func(), error) {
	rs, err := source.As[*source.RabbitMQSource](src)
	if err != nil {
		return nil, nil, err
	}
	if rs.URL == "" {
		return nil, nil, fmt.Errorf("%w: rabbitmq url is empty", plugin.ErrInvalidSource)
	}
	conn, err := c.dial(rs.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	return ch, func() {
		ch.Close()
		conn.Close()
	}, nil
}

func (c *QueueClient) TestCon(ctx context.Context, src source.Source) (bool, error) {
	_, closeFn, err := c.open(src)
	if err != nil {
		return false, err
	}
	closeFn()
	return true, nil
}

// ListTopics AMQP 协议无法枚举队列，需要管理插件的 HTTP 接口
func (c *QueueClient) ListTopics(ctx context.Context, src source.Source) ([]string, error) {
	return nil, plugin.Unsupported("rabbitmq cannot list queues over AMQP")
}

// CreateTopic 声明持久化队列，已存在时为幂等操作
func (c *QueueClient) CreateTopic(ctx context.Context, src source.Source, spec client.TopicSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: queue name is empty", plugin.ErrInvalidArgument)
	}
	ch, closeFn, err := c.open(src)
	if err != nil {
		return err
	}
	defer closeFn()

	q, err := ch.QueueDeclare(spec.Name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", spec.Name, err)
	}
	c.log.Info("Declared queue", zap.String("queue", q.Name), zap.Int("messages", q.Messages))
	return nil
}

func (c *QueueClient) Produce(ctx context.Context, src source.Source, topic string, msgs ...client.Message) error {
	if topic == "" {
		return fmt.Errorf("%w: queue name is empty", plugin.ErrInvalidArgument)
	}
	ch, closeFn, err := c.open(src)
	if err != nil {
		return err
	}
	defer closeFn()

	for _, m := range msgs {
		pub := amqp.Publishing{
			ContentType: "application/octet-stream",
			Body:        m.Value,
			Timestamp:   m.Time,
		}
		if len(m.Key) > 0 {
			pub.MessageId = string(m.Key)
		}
		if err := ch.PublishWithContext(ctx, "", topic, false, false, pub); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}
	return nil
}

// Consume 逐条拉取并确认，队列为空或到达 max 时返回
func (c *QueueClient) Consume(ctx context.Context, src source.Source, topic string, max int) ([]client.Message, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: queue name is empty", plugin.ErrInvalidArgument)
	}
	if max <= 0 {
		return nil, fmt.Errorf("%w: max must be positive", plugin.ErrInvalidArgument)
	}
	ch, closeFn, err := c.open(src)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var out []client.Message
	for len(out) < max {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		d, ok, err := ch.Get(topic, true)
		if err != nil {
			return out, fmt.Errorf("get from %s: %w", topic, err)
		}
		if !ok {
			break
		}
		out = append(out, client.Message{
			Key:    []byte(d.MessageId),
			Value:  d.Body,
			Offset: int64(d.DeliveryTag),
			Time:   d.Timestamp,
		})
	}
	return out, nil
}
