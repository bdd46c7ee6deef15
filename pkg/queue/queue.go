// Package queue 定义领域事件的信封、主题与负载，供发布/订阅使用.
//
// 所有写操作成功后发布一条事件，消息体为 Message[Payload] = Header + Payload 的 JSON（sonic 编码）：
//
//	{
//	  "header": {
//	    "id": "01J9Z3...",            // ULID，同时作为 watermill 消息 UUID
//	    "topic": "dr.folder.moved",
//	    "trace_id": "optional",
//	    "producer": "dataroom",
//	    "actor_id": 7,
//	    "occurred_at": "2025-01-02T03:04:05.123456Z",
//	    "version": "v1"
//	  },
//	  "payload": { ... 取决于具体主题 ... }
//	}
//
// 发布：
//
//	msg, _ := queue.NewWatermillMessage(queue.TopicFolderMoved, payload, queue.WithActor(uid))
//	_ = mqClient.Publish(ctx, queue.TopicFolderMoved, msg)
//
// 订阅端使用 ParseWatermillMessage[T] 或 ParseHeader 解出信封.
package queue

import (
	"crypto/rand"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/oklog/ulid"

	"github.com/yeisme/dataroom/pkg/configs"
)

const (
	PayloadVersionV1 string = "v1"
)

// NewID 生成按时间有序的事件 ID.
func NewID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

// NewEventHeader 便捷创建事件头.
func NewEventHeader(topic string, opts ...func(*EventHeader)) EventHeader {
	now := time.Now().UTC()

	hdr := EventHeader{
		ID:         NewID(now),
		Topic:      topic,
		Producer:   configs.AppName,
		OccurredAt: now,
		Version:    PayloadVersionV1,
	}
	for _, opt := range opts {
		opt(&hdr)
	}

	return hdr
}

// WithTraceID 设置 TraceID.
func WithTraceID(id string) func(*EventHeader) { return func(h *EventHeader) { h.TraceID = id } }

// WithProducer 设置 Producer.
func WithProducer(p string) func(*EventHeader) { return func(h *EventHeader) { h.Producer = p } }

// WithActor 设置触发事件的用户.
func WithActor(uid uint) func(*EventHeader) { return func(h *EventHeader) { h.ActorID = uid } }

// Encode 将消息封装为 JSON 字节切片.
func Encode[T any](msg Message[T]) ([]byte, error) { return sonic.Marshal(msg) }

// Decode 从 JSON 字节解码为消息.
func Decode[T any](b []byte) (Message[T], error) {
	var m Message[T]

	err := sonic.Unmarshal(b, &m)

	return m, err
}

// NewWatermillMessage 构造一个 watermill 消息，消息 UUID 与事件 ID 一致，头部字段同时写入元数据.
func NewWatermillMessage[T any](topic string, payload T, opts ...func(*EventHeader)) (*message.Message, error) {
	header := NewEventHeader(topic, opts...)

	data, err := Encode(Message[T]{Header: header, Payload: payload})
	if err != nil {
		return nil, err
	}

	msg := message.NewMessage(header.ID, data)
	msg.Metadata.Set("topic", topic)
	msg.Metadata.Set("occurred_at", header.OccurredAt.Format(time.RFC3339Nano))
	msg.Metadata.Set("version", header.Version)

	if header.TraceID != "" {
		msg.Metadata.Set("trace_id", header.TraceID)
	}

	if header.Producer != "" {
		msg.Metadata.Set("producer", header.Producer)
	}

	return msg, nil
}

// ParseWatermillMessage 解出泛型负载.
func ParseWatermillMessage[T any](msg *message.Message) (Message[T], error) {
	return Decode[T](msg.Payload)
}

// ParseHeader 只解析事件头，负载保持原始 JSON.
func ParseHeader(msg *message.Message) (EventHeader, error) {
	env, err := Decode[sonic.NoCopyRawMessage](msg.Payload)

	return env.Header, err
}
