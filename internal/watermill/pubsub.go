package watermillutil

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultOutputBuffer is the per subscriber buffer of the in-process bus.
const DefaultOutputBuffer = 256

// PubSuber is the bus as seen by modules.
type PubSuber interface {
	message.Publisher
	message.Subscriber
}

// PubSub wraps the in-process gochannel bus.
type PubSub struct {
	*gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewPubSub creates an in-process bus logging through logger. Publish waits
// for subscribers to ack, so each subscriber sees messages in publish order.
func NewPubSub(logger *slog.Logger, outputBuffer int64) *PubSub {
	if outputBuffer <= 0 {
		outputBuffer = DefaultOutputBuffer
	}
	wmLogger := watermill.NewSlogLogger(logger)
	return &PubSub{
		GoChannel: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            outputBuffer,
			BlockPublishUntilSubscriberAck: true,
		}, wmLogger),
		logger:    wmLogger,
	}
}

// Logger returns the watermill adapter shared with the router.
func (ps *PubSub) Logger() watermill.LoggerAdapter {
	return ps.logger
}

// NewRouter creates a router with the bus' logger.
func (ps *PubSub) NewRouter(closeTimeout time.Duration) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, ps.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	return router, nil
}

// Publish marshals payload and publishes it on topic.
func Publish(ctx context.Context, publisher message.Publisher, topic string, payload any) error {
	msg, err := Marshaler.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}
	msg.SetContext(ctx)
	return publisher.Publish(topic, msg)
}
