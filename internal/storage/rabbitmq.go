package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Mangesh9326/Job-Platform/internal/config"
	"github.com/Mangesh9326/Job-Platform/internal/logger"
)

// MessagePublisher 消息发布接口，发件箱中继依赖它
type MessagePublisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

// RabbitMQ 提供消息队列功能
type RabbitMQ struct {
	conn *amqp.Connection
	mu   sync.Mutex // 保护 ch，amqp 通道不是并发安全的
	ch   *amqp.Channel
	cfg  *config.RabbitMQConfig
}

var _ MessagePublisher = (*RabbitMQ)(nil)

// NewRabbitMQ 创建RabbitMQ客户端并声明上传事件的交换机与队列
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("无法创建RabbitMQ通道: %w", err)
	}

	mq := &RabbitMQ{conn: conn, ch: ch, cfg: cfg}
	if err := mq.ensureTopology(); err != nil {
		_ = mq.Close()
		return nil, err
	}
	logger.Info().Str("exchange", cfg.ResumeEventsExchange).Msg("成功连接到RabbitMQ服务器")
	return mq, nil
}

// ensureTopology 声明 topic 交换机、持久化队列及绑定
func (r *RabbitMQ) ensureTopology() error {
	if r.cfg.ResumeEventsExchange == "" {
		return nil
	}
	if err := r.ch.ExchangeDeclare(r.cfg.ResumeEventsExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}
	if r.cfg.UploadedQueue == "" {
		return nil
	}
	if _, err := r.ch.QueueDeclare(r.cfg.UploadedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("声明队列失败: %w", err)
	}
	if err := r.ch.QueueBind(r.cfg.UploadedQueue, r.cfg.UploadedRoutingKey, r.cfg.ResumeEventsExchange, false, nil); err != nil {
		return fmt.Errorf("绑定队列到exchange失败: %w", err)
	}
	return nil
}

// Close 关闭通道和连接
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ch != nil {
		_ = r.ch.Close()
	}
	return r.conn.Close()
}

// PublishMessage 发布消息到exchange
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deliveryMode := amqp.Transient
	if persistent {
		deliveryMode = amqp.Persistent
	}
	err := r.ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		DeliveryMode: deliveryMode,
		ContentType:  "application/json",
		Body:         message,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("发布消息失败: %w", err)
	}
	return nil
}
