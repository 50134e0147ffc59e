package config

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// InventoryEvent is published after an inventory mutation commits.
type InventoryEvent struct {
	ShopsId       string    `json:"shops_id"`
	EntityType    string    `json:"entity_type"`
	EntityId      string    `json:"entity_id"`
	Action        string    `json:"action"`
	ActorId       string    `json:"actor_id,omitempty"`
	CorrelationId string    `json:"correlation_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher delivers raw messages to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, data []byte) (string, error)
}

type gcpPublisher struct{}

// pubsubClientCooldown is how long a failed client build is remembered.
// Publishes in that window fail at once instead of queueing on the mutex.
const pubsubClientCooldown = time.Minute

var (
	pubsubClient     *pubsub.Client
	pubsubClientErr  error
	pubsubRetryAfter time.Time
	pubsubClientMu   sync.Mutex
	pubsubNow        = time.Now

	publisher   EventPublisher = gcpPublisher{}
	publisherMu sync.RWMutex
)

// SetEventPublisher swaps the publisher. Passing nil restores Pub/Sub.
func SetEventPublisher(p EventPublisher) {
	publisherMu.Lock()
	defer publisherMu.Unlock()
	if p == nil {
		p = gcpPublisher{}
	}
	publisher = p
}

func getPublisher() EventPublisher {
	publisherMu.RLock()
	defer publisherMu.RUnlock()
	return publisher
}

func getPubSubProjectID() string {
	if v := os.Getenv("PUBSUB_PROJECT_ID"); v != "" {
		return v
	}
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		return v
	}
	return os.Getenv("GCP_PROJECT")
}

// getPubSubClient lazily builds the shared client. Unlike the database it
// gives up after a few attempts: events are best-effort.
func getPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	pubsubClientMu.Lock()
	defer pubsubClientMu.Unlock()
	if pubsubClient != nil {
		return pubsubClient, nil
	}
	if pubsubClientErr != nil && pubsubNow().Before(pubsubRetryAfter) {
		return nil, pubsubClientErr
	}

	c, err := newPubSubClient(ctx)
	if err != nil {
		pubsubClientErr = err
		pubsubRetryAfter = pubsubNow().Add(pubsubClientCooldown)
		return nil, err
	}
	pubsubClient, pubsubClientErr = c, nil
	return c, nil
}

func newPubSubClient(ctx context.Context) (*pubsub.Client, error) {
	projectID := getPubSubProjectID()
	if projectID == "" {
		return nil, errors.New("PUBSUB_PROJECT_ID/GOOGLE_CLOUD_PROJECT not set")
	}

	var opts []option.ClientOption
	if credJSON := os.Getenv("PUBSUB_CREDENTIALS_JSON"); credJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credJSON)))
	}

	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		c, err := pubsub.NewClient(ctx, projectID, opts...)
		if err == nil {
			log.Printf("pubsub client ready (project_id=%s attempt=%d)", projectID, attempt)
			return c, nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoff(attempt)):
		}
	}
	return nil, lastErr
}

func (gcpPublisher) Publish(ctx context.Context, topic string, data []byte) (string, error) {
	client, err := getPubSubClient(ctx)
	if err != nil {
		return "", err
	}
	result := client.Topic(topic).Publish(ctx, &pubsub.Message{Data: data})
	return result.Get(ctx)
}

// PublishInventoryEvent sends the event to INVENTORY_EVENTS_TOPIC. It does
// nothing when no topic is configured.
func PublishInventoryEvent(ctx context.Context, event InventoryEvent) error {
	topic := GetSettings().InventoryEventsTopic
	if topic == "" {
		return nil
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = getPublisher().Publish(ctx, topic, data)
	return err
}
