//go:build integration

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/testhelpers"
)

func TestPublisherPublishesToKafka(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping Kafka integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	topic := "sample-reports"
	broker := testhelpers.StartKafka(ctx, t, topic)

	publisher, err := NewPublisher(PublisherConfig{
		Brokers: []string{broker},
		Topic:   topic,
	})
	if err != nil {
		t.Fatalf("NewPublisher failed: %v", err)
	}
	defer publisher.Close()

	report := sampleReport()
	if err := publisher.PublishRunReport(ctx, report); err != nil {
		t.Fatalf("PublishRunReport returned error: %v", err)
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: "integration-test",
	})
	t.Cleanup(func() {
		_ = reader.Close()
	})

	msgCtx, cancelRead := context.WithTimeout(ctx, 20*time.Second)
	defer cancelRead()

	msg, err := reader.ReadMessage(msgCtx)
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	var envelope reportEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}

	if envelope.ID != report.Case.ID() {
		t.Fatalf("expected envelope ID %q, got %q", report.Case.ID(), envelope.ID)
	}
	if envelope.Status != report.Status {
		t.Fatalf("expected status %q, got %q", report.Status, envelope.Status)
	}
	if envelope.Detected != report.Detected {
		t.Fatalf("expected detected %q, got %q", report.Detected, envelope.Detected)
	}
}

func TestConsumerReadsCasesFromKafka(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping Kafka integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	topic := "sample-cases"
	broker := testhelpers.StartKafka(ctx, t, topic)

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(broker),
		Topic:        topic,
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
	defer writer.Close()

	suite := requestEnvelope{
		Type:         messageTypeSuite,
		Suite:        "remote",
		Sample:       "classification_sample_async",
		ExpectedTop1: "215",
		Options: []optionEnvelope{
			{Name: "batch", Values: []string{"1", "2"}},
			{Name: "d", Values: []string{"CPU"}},
		},
		DeviceKeys: []string{"d"},
	}
	if err := writer.WriteMessages(ctx,
		kafkago.Message{Value: mustMarshal(t, suite)},
		kafkago.Message{Value: mustMarshal(t, requestEnvelope{Type: messageTypeDone})},
	); err != nil {
		t.Fatalf("write requests: %v", err)
	}

	consumer, err := NewConsumer(Config{
		Brokers: []string{broker},
		Topic:   topic,
		GroupID: "integration-consumer",
	})
	if err != nil {
		t.Fatalf("NewConsumer failed: %v", err)
	}
	defer consumer.Close()

	readCtx, cancelRead := context.WithTimeout(ctx, 30*time.Second)
	defer cancelRead()

	var cases []execution.TestCase
	for {
		tc, err := consumer.NextCase(readCtx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("NextCase returned error: %v", err)
		}
		cases = append(cases, tc)
	}

	if len(cases) != 2 {
		t.Fatalf("expected 2 cases, got %d", len(cases))
	}
	if cases[0].ID() != "remote[batch=1-d=CPU]" || cases[1].ID() != "remote[batch=2-d=CPU]" {
		t.Fatalf("unexpected cases %s, %s", cases[0].ID(), cases[1].ID())
	}
}
