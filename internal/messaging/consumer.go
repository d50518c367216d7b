package messaging

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/correlation"
)

// MessageProcessor handles one delivered message body. Delivery is
// at-least-once and possibly out of order; processors must be idempotent.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, body []byte) error
}

// Consumer receives messages from the summary-updater subscription and
// hands them to a processor.
type Consumer struct {
	client       *azservicebus.Client
	topic        string
	subscription string
	batchSize    int
}

// NewConsumer creates a consumer for the given topic subscription.
func NewConsumer(connStr, topic, subscription string) (*Consumer, error) {
	client, err := azservicebus.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service bus client")
	}

	return &Consumer{
		client:       client,
		topic:        topic,
		subscription: subscription,
		batchSize:    10,
	}, nil
}

// Run receives and processes messages until the context is canceled.
// A processing error abandons the message; redelivery is the bus's concern.
func (c *Consumer) Run(ctx context.Context, processor MessageProcessor) error {
	receiver, err := c.client.NewReceiverForSubscription(
		c.topic,
		c.subscription,
		&azservicebus.ReceiverOptions{
			ReceiveMode: azservicebus.ReceiveModePeekLock,
		},
	)
	if err != nil {
		return errors.Wrapf(err, "failed to create receiver for subscription %s", c.subscription)
	}
	defer receiver.Close(context.Background())

	log.Info().
		Str("topic", c.topic).
		Str("subscription", c.subscription).
		Msg("Consumer started")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		receiveCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		messages, err := receiver.ReceiveMessages(receiveCtx, c.batchSize, nil)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Failed to receive messages")
			time.Sleep(2 * time.Second)
			continue
		}

		for _, message := range messages {
			c.handleMessage(ctx, receiver, message, processor)
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, receiver *azservicebus.Receiver, message *azservicebus.ReceivedMessage, processor MessageProcessor) {
	msgCtx := ctx
	if raw, ok := message.ApplicationProperties[correlation.MessageProperty]; ok {
		if id, ok := raw.(string); ok && id != "" {
			msgCtx = correlation.WithID(ctx, id)
		}
	}
	msgCtx, correlationID := correlation.Ensure(msgCtx)

	if err := processor.ProcessMessage(msgCtx, message.Body); err != nil {
		log.Error().Err(err).
			Str("message_id", message.MessageID).
			Str("correlation_id", correlationID).
			Msg("Failed to process message")
		if abandonErr := receiver.AbandonMessage(ctx, message, nil); abandonErr != nil {
			log.Error().Err(abandonErr).Str("message_id", message.MessageID).Msg("Failed to abandon message")
		}
		return
	}

	if err := receiver.CompleteMessage(ctx, message, nil); err != nil {
		log.Error().Err(err).Str("message_id", message.MessageID).Msg("Failed to complete message")
	}
}

// Close releases the underlying client.
func (c *Consumer) Close(ctx context.Context) error {
	return c.client.Close(ctx)
}
