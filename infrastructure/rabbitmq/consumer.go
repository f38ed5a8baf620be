package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// MessageHandler 是一个函数类型，用于处理接收到的 RabbitMQ 消息
// 返回的 error 如果非 nil，消息会被 Nack (不重新入队)
type MessageHandler func(ctx context.Context, delivery amqp.Delivery) error

// ConsumerOptions 用于配置 Consumer
type ConsumerOptions struct {
	ExchangeName string // 必须: 绑定的交换机名称
	ExchangeType string // 可选: 交换机类型，默认为 "topic"
	QueueName    string // 队列名称 (如果为空，将生成一个临时队列名)
	RoutingKey   string // 必须: 绑定队列到交换机的路由键
	ConsumerTag  string // 可选: 消费者标签 (如果为空，将生成一个)
	DurableQueue bool   // 队列是否持久化
}

// Consumer 结构体用于消费消息
type Consumer struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queueName   string
	consumerTag string
	handler     MessageHandler
	logger      *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConsumer 创建一个新的 Consumer 实例并开始消费消息
func NewConsumer(amqpURL string, handler MessageHandler, opts ConsumerOptions, logger *zap.Logger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", zap.Error(err))
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		logger.Error("无法打开 RabbitMQ 通道", zap.Error(err))
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	closeAll := func() {
		ch.Close()
		conn.Close()
	}

	if opts.ExchangeType == "" {
		opts.ExchangeType = "topic"
	}
	// 声明交换机 (确保它存在)
	if err := ch.ExchangeDeclare(opts.ExchangeName, opts.ExchangeType, true, false, false, false, nil); err != nil {
		closeAll()
		logger.Error("无法声明 RabbitMQ 交换机", zap.String("exchange", opts.ExchangeName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", opts.ExchangeName, err)
	}

	// 声明队列，名称为空时由服务器生成排他的临时队列
	exclusive := opts.QueueName == ""
	q, err := ch.QueueDeclare(opts.QueueName, opts.DurableQueue, exclusive, exclusive, false, nil)
	if err != nil {
		closeAll()
		logger.Error("无法声明 RabbitMQ 队列", zap.String("queue", opts.QueueName), zap.Error(err))
		return nil, fmt.Errorf("failed to declare queue '%s': %w", opts.QueueName, err)
	}

	// 将队列绑定到交换机
	if err := ch.QueueBind(q.Name, opts.RoutingKey, opts.ExchangeName, false, nil); err != nil {
		closeAll()
		logger.Error("无法将队列绑定到交换机",
			zap.String("queue", q.Name),
			zap.String("exchange", opts.ExchangeName),
			zap.String("routingKey", opts.RoutingKey),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to bind queue '%s' to exchange '%s' with key '%s': %w", q.Name, opts.ExchangeName, opts.RoutingKey, err)
	}

	consumerTag := opts.ConsumerTag
	if consumerTag == "" {
		consumerTag = fmt.Sprintf("netvis-%s-%d", q.Name, time.Now().UnixNano())
	}

	deliveries, err := ch.Consume(q.Name, consumerTag, false, false, false, false, nil)
	if err != nil {
		closeAll()
		logger.Error("启动消费者失败", zap.Error(err))
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Consumer{
		conn:        conn,
		channel:     ch,
		queueName:   q.Name,
		consumerTag: consumerTag,
		handler:     handler,
		logger:      logger.Named("rabbitmq_consumer").With(zap.String("queue", q.Name), zap.String("tag", consumerTag)),
		cancel:      cancel,
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(ctx, deliveries)
	}()
	c.logger.Info("RabbitMQ Consumer 已启动并开始监听消息", zap.String("routingKey", opts.RoutingKey))

	return c, nil
}

// consume 逐条处理消息，直到通道关闭或 ctx 取消
func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Info("消息通道已关闭，消费者正在停止")
				return
			}
			c.handleDelivery(ctx, delivery)
		case <-ctx.Done():
			c.logger.Info("收到关闭信号，消费者正在停止")
			return
		}
	}
}

// handleDelivery 调用 handler 并根据结果 Ack 或 Nack
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	c.logger.Debug("收到消息", zap.ByteString("body", delivery.Body))
	if err := c.handler(ctx, delivery); err != nil {
		c.logger.Error("消息处理失败，将发送 Nack", zap.Error(err))
		// 不重新入队，无法处理的消息反复投递会形成死循环
		if ackErr := delivery.Nack(false, false); ackErr != nil {
			c.logger.Error("发送 Nack 失败", zap.Error(ackErr))
		}
		return
	}
	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("发送 Ack 失败", zap.Error(ackErr))
	}
}

// Shutdown 优雅地关闭消费者: 取消订阅，等待正在处理的消息完成后关闭通道和连接
func (c *Consumer) Shutdown() error {
	c.logger.Info("正在取消 RabbitMQ 消费者标签")
	err := c.channel.Cancel(c.consumerTag, false)
	if err != nil {
		c.logger.Error("取消 RabbitMQ 消费者失败", zap.Error(err))
	}

	c.cancel()
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		c.logger.Warn("等待消费者循环完成超时")
	}

	if closeErr := c.channel.Close(); closeErr != nil {
		c.logger.Error("关闭 RabbitMQ 通道失败", zap.Error(closeErr))
	}
	if closeErr := c.conn.Close(); closeErr != nil {
		c.logger.Error("关闭 RabbitMQ 连接失败", zap.Error(closeErr))
	}

	c.logger.Info("RabbitMQ Consumer 已成功关闭")
	return err
}
