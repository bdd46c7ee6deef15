package mq

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/yeisme/dataroom/pkg/configs"
)

func init() {
	RegisterFactory(configs.MQTypeGoChannel, goChannelFactory)
}

// NewGoChannel 创建进程内 pub/sub，同一个对象同时作为发布端与订阅端.
func NewGoChannel(cfg configs.MQGoChannelConfig, logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            cfg.BufferLen,
		Persistent:                     cfg.Persistent,
		BlockPublishUntilSubscriberAck: cfg.BlockOnFull,
	}, logger)
}

func goChannelFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	ch := NewGoChannel(cfg.GoChannel, logger)

	return ch, ch, nil
}
