//go:build integration

// Package testhelpers provides shared fixtures for integration tests.
package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	kafkatc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	kafkaImage        = "confluentinc/confluent-local:7.7.0"
	readinessInterval = 500 * time.Millisecond
	readinessTimeout  = 30 * time.Second
)

// StartKafka starts a throwaway single-node broker with topics created and
// returns its bootstrap address. The calling test is skipped when no Docker
// daemon is available.
func StartKafka(ctx context.Context, t testing.TB, topics ...string) string {
	t.Helper()

	broker, err := kafkatc.Run(ctx, kafkaImage)
	if err != nil {
		t.Skipf("kafka broker unavailable (Docker required): %v", err)
	}
	t.Cleanup(func() {
		if err := broker.Terminate(context.Background()); err != nil {
			t.Logf("terminate kafka container: %v", err)
		}
	})

	addrs, err := broker.Brokers(ctx)
	switch {
	case err != nil:
		t.Fatalf("resolve kafka bootstrap address: %v", err)
	case len(addrs) == 0:
		t.Fatal("kafka container reported no bootstrap address")
	}

	if err := EnsureKafkaTopics(ctx, addrs[0], topics...); err != nil {
		t.Fatalf("prepare kafka topics: %v", err)
	}
	return addrs[0]
}

// EnsureKafkaTopics waits for broker to answer metadata requests and then
// creates the missing topics with a single partition each.
func EnsureKafkaTopics(ctx context.Context, broker string, topics ...string) error {
	client := &kafkago.Client{Addr: kafkago.TCP(broker), Timeout: 10 * time.Second}
	if err := awaitMetadata(ctx, client); err != nil {
		return err
	}
	if len(topics) == 0 {
		return nil
	}

	req := &kafkago.CreateTopicsRequest{}
	for _, topic := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	resp, err := client.CreateTopics(ctx, req)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for topic, topicErr := range resp.Errors {
		if topicErr != nil && !errors.Is(topicErr, kafkago.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", topic, topicErr)
		}
	}
	return nil
}

func awaitMetadata(ctx context.Context, client *kafkago.Client) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	ticker := time.NewTicker(readinessInterval)
	defer ticker.Stop()
	for {
		_, err := client.Metadata(ctx, &kafkago.MetadataRequest{})
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("kafka broker %s not ready: %w", client.Addr, err)
		case <-ticker.C:
		}
	}
}
