package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/clinichub/services/appointment/internal/correlation"
	"example.com/clinichub/services/appointment/internal/domain"
	"example.com/clinichub/services/appointment/internal/metrics"
)

// Publisher sends domain events to the topic under their routing key.
type Publisher interface {
	// Publish serializes the event and sends it. A serialization error is
	// returned; a transport error is logged, counted and swallowed because
	// the originating write has already committed and must not fail.
	Publish(ctx context.Context, routingKey, aggregateID string, data interface{}) error
	Close(ctx context.Context) error
}

// AzurePublisher implements Publisher on Azure Service Bus.
type AzurePublisher struct {
	client    *azservicebus.Client
	sender    *azservicebus.Sender
	topic     string
	collector *metrics.Metrics
}

// NewAzurePublisher creates a publisher bound to the configured topic.
func NewAzurePublisher(connStr, topic string, collector *metrics.Metrics) (*AzurePublisher, error) {
	client, err := azservicebus.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create service bus client")
	}

	sender, err := client.NewSender(topic, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create sender for topic %s", topic)
	}

	return &AzurePublisher{
		client:    client,
		sender:    sender,
		topic:     topic,
		collector: collector,
	}, nil
}

// Publish sends one domain event. The correlation id from the context rides
// along as a message application property and inside the envelope.
func (p *AzurePublisher) Publish(ctx context.Context, routingKey, aggregateID string, data interface{}) error {
	correlationID, _ := correlation.FromContext(ctx)

	envelope := domain.Event{
		Type:          routingKey,
		AggregateID:   aggregateID,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          data,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		// A corrupt event must not be silently dropped from the trail.
		return errors.Wrap(err, "failed to marshal domain event")
	}

	messageID := uuid.New().String()
	message := &azservicebus.Message{
		MessageID: &messageID,
		Subject:   &routingKey,
		Body:      body,
		ApplicationProperties: map[string]interface{}{
			correlation.MessageProperty: correlationID,
		},
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.sender.SendMessage(sendCtx, message, nil); err != nil {
		// Availability over consistency: the write already committed, so a
		// publish failure degrades the read model instead of failing the
		// caller. The counter keeps the failure visible to operators.
		if p.collector != nil {
			p.collector.IncrementCounter(metrics.PublishFailures)
		}
		log.Error().Err(err).
			Str("routing_key", routingKey).
			Str("aggregate_id", aggregateID).
			Str("correlation_id", correlationID).
			Msg("Failed to publish domain event")
		return nil
	}

	if p.collector != nil {
		p.collector.IncrementCounter(metrics.EventsPublished)
	}
	log.Info().
		Str("routing_key", routingKey).
		Str("aggregate_id", aggregateID).
		Str("correlation_id", correlationID).
		Msg("Domain event published")
	return nil
}

// Close releases the sender and client.
func (p *AzurePublisher) Close(ctx context.Context) error {
	if err := p.sender.Close(ctx); err != nil {
		return errors.Wrap(err, "failed to close sender")
	}
	return p.client.Close(ctx)
}
