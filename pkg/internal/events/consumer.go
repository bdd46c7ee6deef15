// Package events 提供服务端内置的领域事件消费者：记录审计日志并累计指标.
package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	mqc "github.com/yeisme/dataroom/pkg/internal/storage/mq"
	"github.com/yeisme/dataroom/pkg/log"
	"github.com/yeisme/dataroom/pkg/metrics"
	"github.com/yeisme/dataroom/pkg/queue"
)

// Consumer 订阅全部 dr.* 主题.
type Consumer struct {
	router *message.Router
}

// NewConsumer 为每个主题注册一个处理器，topics 为空时订阅全部主题.
func NewConsumer(client *mqc.Client, topics ...string) (*Consumer, error) {
	if client == nil {
		return nil, mqc.ErrNotInitialized
	}

	router, err := client.NewRouter()
	if err != nil {
		return nil, err
	}

	router.AddMiddleware(middleware.Recoverer)

	if len(topics) == 0 {
		topics = queue.AllTopics()
	}

	for _, topic := range topics {
		router.AddNoPublisherHandler("audit."+topic, topic, client.Subscriber(), Handle)
	}

	return &Consumer{router: router}, nil
}

// Run 阻塞运行直到 ctx 取消或 Close 被调用.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.router.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run event consumer: %w", err)
	}

	return nil
}

// Running 在所有处理器就绪后关闭.
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

// Close 停止消费.
func (c *Consumer) Close() error {
	return c.router.Close()
}

// Handle 解析事件头并记录一条审计日志，无法解析的消息直接丢弃.
func Handle(msg *message.Message) error {
	topic := message.SubscribeTopicFromCtx(msg.Context())
	l := log.Logger().With().Str("topic", topic).Str("message_uuid", msg.UUID).Logger()

	h, err := queue.ParseHeader(msg)
	if err != nil {
		l.Warn().Err(err).Msg("drop malformed event")
		return nil
	}

	if topic == "" {
		topic = h.Topic
	}

	metrics.EventsConsumed.WithLabelValues(topic).Inc()

	l.Info().
		Str("event_id", h.ID).
		Str("event_topic", h.Topic).
		Uint("actor_id", h.ActorID).
		Str("trace_id", h.TraceID).
		Time("occurred_at", h.OccurredAt).
		Msg("domain event")

	return nil
}
