package mq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/dataroom/pkg/configs"
)

const (
	redisFieldUUID     = "uuid"
	redisFieldMetadata = "metadata"
	redisFieldPayload  = "payload"

	redisBlock          = time.Second
	redisMaxRedelivery  = 3
	redisOutputChanSize = 64
)

// init 注册 Redis 工厂.
func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

// redisFactory 创建基于 Redis Streams 的 Publisher & Subscriber，
// 每个主题对应一个 stream，消息元数据随 payload 一同写入.
func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	pub := &RedisPublisher{client: rdb, maxLen: cfg.Redis.MaxLen}
	sub := &RedisSubscriber{client: rdb, logger: logger, closeCh: make(chan struct{})}

	return pub, sub, nil
}

// RedisPublisher Redis Streams Publisher 实现.
type RedisPublisher struct {
	client *redis.Client
	maxLen int64
}

// Publish 实现 Publisher 接口.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		meta, err := sonic.Marshal(msg.Metadata)
		if err != nil {
			return err
		}

		args := &redis.XAddArgs{
			Stream: topic,
			Values: map[string]any{
				redisFieldUUID:     msg.UUID,
				redisFieldMetadata: meta,
				redisFieldPayload:  []byte(msg.Payload),
			},
		}
		if p.maxLen > 0 {
			args.MaxLen = p.maxLen
			args.Approx = true
		}

		if err := p.client.XAdd(msg.Context(), args).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 发布端与订阅端共享连接，由订阅端负责关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// RedisSubscriber Redis Streams Subscriber 实现，只投递订阅之后写入的消息.
type RedisSubscriber struct {
	client  *redis.Client
	logger  watermill.LoggerAdapter
	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Subscribe 实现 Subscriber 接口.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.New("redis subscriber closed")
	}

	out := make(chan *message.Message, redisOutputChanSize)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		s.consume(ctx, topic, out)
	}()

	return out, nil
}

func (s *RedisSubscriber) consume(ctx context.Context, topic string, out chan<- *message.Message) {
	lastID := "$"

	for {
		select {
		case <-s.closeCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		streams, err := s.client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{topic, lastID},
			Block:   redisBlock,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}

		if err != nil {
			if ctx.Err() != nil || s.isClosed() {
				return
			}

			s.logger.Error("redis xread failed", err, watermill.LogFields{"topic": topic})
			time.Sleep(redisBlock)

			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				lastID = entry.ID

				if !s.deliver(ctx, entry, out) {
					return
				}
			}
		}
	}
}

// deliver 投递一条消息并等待 Ack；Nack 时重新投递，超过次数后丢弃.
func (s *RedisSubscriber) deliver(ctx context.Context, entry redis.XMessage, out chan<- *message.Message) bool {
	for attempt := 0; attempt < redisMaxRedelivery; attempt++ {
		msg := toMessage(entry)
		msg.SetContext(ctx)

		select {
		case out <- msg:
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}

		select {
		case <-msg.Acked():
			return true
		case <-msg.Nacked():
			continue
		case <-s.closeCh:
			return false
		case <-ctx.Done():
			return false
		}
	}

	s.logger.Error("message dropped after redelivery", nil, watermill.LogFields{"stream_id": entry.ID})

	return true
}

func toMessage(entry redis.XMessage) *message.Message {
	uuid, _ := entry.Values[redisFieldUUID].(string)
	if uuid == "" {
		uuid = watermill.NewUUID()
	}

	payload, _ := entry.Values[redisFieldPayload].(string)
	msg := message.NewMessage(uuid, []byte(payload))

	if raw, ok := entry.Values[redisFieldMetadata].(string); ok && raw != "" {
		var meta map[string]string
		if err := sonic.UnmarshalString(raw, &meta); err == nil {
			for k, v := range meta {
				msg.Metadata.Set(k, v)
			}
		}
	}

	return msg
}

func (s *RedisSubscriber) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Close 实现 Subscriber 接口.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()

	s.wg.Wait()

	return s.client.Close()
}
