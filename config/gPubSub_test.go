package config

import (
	"context"
	"testing"
	"time"
)

func resetPubSubClient(t *testing.T) {
	t.Helper()
	reset := func() {
		if pubsubClient != nil {
			pubsubClient.Close()
		}
		pubsubClient, pubsubClientErr, pubsubRetryAfter, pubsubNow = nil, nil, time.Time{}, time.Now
	}
	reset()
	t.Cleanup(reset)
}

func TestPubSubClientBuildFailureIsRemembered(t *testing.T) {
	resetPubSubClient(t)
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GCP_PROJECT", "")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pubsubNow = func() time.Time { return now }

	_, first := getPubSubClient(context.Background())
	if first == nil {
		t.Fatalf("expected an error without a project id")
	}

	// the project appears, but the failure is still within its cooldown
	t.Setenv("PUBSUB_PROJECT_ID", "inventory-test")
	t.Setenv("PUBSUB_EMULATOR_HOST", "127.0.0.1:1")
	if _, err := getPubSubClient(context.Background()); err != first {
		t.Fatalf("expected the remembered error, got %v", err)
	}

	now = now.Add(pubsubClientCooldown)
	client, err := getPubSubClient(context.Background())
	if err != nil || client == nil {
		t.Fatalf("expected a client after the cooldown, got %v", err)
	}
}
