package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"github.com/yourorg/azure-blob-kit/pkg/logging"
	"github.com/yourorg/azure-blob-kit/pkg/utils"
)

// ServiceBusPublisher publishes deletion events to an Azure Service Bus
// queue.
type ServiceBusPublisher struct {
	client *azservicebus.Client
	sender *azservicebus.Sender
	queue  string
	logger logging.Logger
}

// NewServiceBusPublisher creates a publisher from a connection string.
func NewServiceBusPublisher(connectionString, queue string, logger logging.Logger) (*ServiceBusPublisher, error) {
	client, err := azservicebus.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}
	return newPublisher(client, queue, logger)
}

// NewServiceBusPublisherWithIdentity creates a publisher authenticating
// with an Azure AD credential instead of a connection string. The
// namespace is the fully qualified one, e.g. "myns.servicebus.windows.net".
func NewServiceBusPublisherWithIdentity(namespace, queue string, credential azcore.TokenCredential, logger logging.Logger) (*ServiceBusPublisher, error) {
	client, err := azservicebus.NewClient(namespace, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}
	return newPublisher(client, queue, logger)
}

func newPublisher(client *azservicebus.Client, queue string, logger logging.Logger) (*ServiceBusPublisher, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender for queue %s: %w", queue, err)
	}
	return &ServiceBusPublisher{
		client: client,
		sender: sender,
		queue:  queue,
		logger: logger,
	}, nil
}

// PublishDeletion serializes the event as JSON and sends it to the queue.
func (p *ServiceBusPublisher) PublishDeletion(ctx context.Context, event DeletionEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal deletion event: %w", err)
	}

	contentType := "application/json"
	messageID := utils.GenerateUUID()
	message := &azservicebus.Message{
		Body:        payload,
		ContentType: &contentType,
		MessageID:   &messageID,
		ApplicationProperties: map[string]interface{}{
			"event_type": "blob.deleted",
			"container":  event.Container,
		},
	}

	if err := p.sender.SendMessage(ctx, message, nil); err != nil {
		p.logger.WithError(err).Error("Failed to publish deletion event",
			logging.NewField("queue", p.queue),
			logging.NewField("container", event.Container),
			logging.NewField("blob", event.Blob))
		return fmt.Errorf("failed to send message to queue %s: %w", p.queue, err)
	}

	p.logger.Debug("Published deletion event",
		logging.NewField("queue", p.queue),
		logging.NewField("container", event.Container),
		logging.NewField("blob", event.Blob),
		logging.NewField("message_id", messageID))
	return nil
}

// Close closes the sender and the underlying connection.
func (p *ServiceBusPublisher) Close(ctx context.Context) error {
	if err := p.sender.Close(ctx); err != nil {
		return fmt.Errorf("failed to close sender: %w", err)
	}
	return p.client.Close(ctx)
}
