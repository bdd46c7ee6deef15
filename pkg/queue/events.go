package queue

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher 发布端抽象，由 mq.Client 实现.
type Publisher interface {
	Publish(ctx context.Context, topic string, msgs ...*message.Message) error
}

// Publish 封装负载并发布到 topic.
func Publish[T any](ctx context.Context, pub Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(ctx, topic, msg)
}

// ParseFolderEvent 解析 dr.folder.* 事件.
func ParseFolderEvent(msg *message.Message) (Message[FolderPayload], error) {
	return ParseWatermillMessage[FolderPayload](msg)
}

// ParseFileEvent 解析 dr.file.* 事件.
func ParseFileEvent(msg *message.Message) (Message[FilePayload], error) {
	return ParseWatermillMessage[FilePayload](msg)
}

// ParseDataRoomEvent 解析 dr.dataroom.* 事件.
func ParseDataRoomEvent(msg *message.Message) (Message[DataRoomPayload], error) {
	return ParseWatermillMessage[DataRoomPayload](msg)
}
