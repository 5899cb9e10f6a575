package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
)

var _ ports.RunReportPublisher = (*Publisher)(nil)

const defaultWriteTimeout = 10 * time.Second

// PublisherConfig configures where case reports are written.
type PublisherConfig struct {
	Brokers []string
	Topic   string
	// WriteTimeout bounds a single report write; zero means ten seconds.
	WriteTimeout time.Duration
	Logger       *zap.Logger
}

// Publisher writes one message per case report. Messages are keyed by case ID
// so every report for a case lands on the same partition.
type Publisher struct {
	writer       messageWriter
	writeTimeout time.Duration
	logger       *zap.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher validates cfg and connects a writer to the report topic.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	switch {
	case len(cfg.Brokers) == 0:
		return nil, errors.New("kafka publisher: no brokers configured")
	case cfg.Topic == "":
		return nil, errors.New("kafka publisher: report topic is empty")
	}

	p := newPublisher(&kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	})
	if cfg.WriteTimeout > 0 {
		p.writeTimeout = cfg.WriteTimeout
	}
	if cfg.Logger != nil {
		p.logger = cfg.Logger
	}
	return p, nil
}

func newPublisher(writer messageWriter) *Publisher {
	return &Publisher{
		writer:       writer,
		writeTimeout: defaultWriteTimeout,
		logger:       zap.NewNop(),
	}
}

// PublishRunReport encodes report and writes it to the report topic.
func (p *Publisher) PublishRunReport(ctx context.Context, report execution.RunReport) error {
	if p.writer == nil {
		return errors.New("kafka publisher: not initialized")
	}

	msg, err := reportMessage(report)
	if err != nil {
		return err
	}

	writeCtx := ctx
	if p.writeTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, p.writeTimeout)
		defer cancel()
	}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		return fmt.Errorf("kafka publisher: write message for %s: %w", report.Case.ID(), err)
	}

	if p.logger != nil {
		p.logger.Debug("published case report",
			zap.String("case", report.Case.ID()),
			zap.String("status", string(report.Status)))
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("kafka publisher: close writer: %w", err)
	}
	return nil
}

func reportMessage(report execution.RunReport) (kafkago.Message, error) {
	payload, err := encodeRunReport(report)
	if err != nil {
		return kafkago.Message{}, err
	}
	return kafkago.Message{
		Key:   []byte(report.Case.ID()),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "status", Value: []byte(report.Status)},
		},
	}, nil
}
