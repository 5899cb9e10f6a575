package kafka

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"samplesmoke/internal/domain/execution"
	"samplesmoke/internal/ports"
)

const (
	defaultGroupID  = "samplesmoke-runner"
	defaultMaxBytes = 10 << 20
	defaultMaxWait  = time.Second
)

// Config describes the case request topic and consumer group.
type Config struct {
	Brokers []string
	Topic   string
	// GroupID defaults to "samplesmoke-runner" so that several harness
	// instances share one request stream.
	GroupID  string
	MinBytes int
	MaxBytes int
	MaxWait  time.Duration
	Logger   *zap.Logger
	// OnRejected receives a config_error report for every request that cannot
	// be turned into cases. The report's case carries only the suite name.
	OnRejected func(execution.RunReport)
}

func (cfg Config) readerConfig() kafkago.ReaderConfig {
	rc := kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
		MaxWait:  cfg.MaxWait,
	}
	if rc.GroupID == "" {
		rc.GroupID = defaultGroupID
	}
	if rc.MinBytes <= 0 {
		rc.MinBytes = 1
	}
	if rc.MaxBytes <= 0 {
		rc.MaxBytes = defaultMaxBytes
	}
	if rc.MaxWait <= 0 {
		rc.MaxWait = defaultMaxWait
	}
	return rc
}

var _ ports.CaseProducer = (*Consumer)(nil)

// Consumer turns case and suite requests read from Kafka into test cases.
// Suite requests are expanded up front and handed out one case at a time.
// Malformed requests are logged and skipped.
type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	onRejected func(execution.RunReport)

	mu      sync.Mutex
	pending []execution.TestCase
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// NewConsumer joins the consumer group described by cfg.
func NewConsumer(cfg Config) (*Consumer, error) {
	switch {
	case len(cfg.Brokers) == 0:
		return nil, errors.New("kafka consumer: no brokers configured")
	case cfg.Topic == "":
		return nil, errors.New("kafka consumer: request topic is empty")
	}
	c := newConsumer(kafkago.NewReader(cfg.readerConfig()), cfg.Logger)
	c.onRejected = cfg.OnRejected
	return c, nil
}

func newConsumer(reader messageReader, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, logger: logger}
}

// NextCase returns the next requested case, reading from Kafka when nothing is
// buffered. It returns io.EOF after a done request.
func (c *Consumer) NextCase(ctx context.Context) (execution.TestCase, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for {
		if tc, ok := c.take(); ok {
			return tc, nil
		}
		if err := c.fill(ctx); err != nil {
			return execution.TestCase{}, err
		}
	}
}

func (c *Consumer) take() (execution.TestCase, bool) {
	if len(c.pending) == 0 {
		return execution.TestCase{}, false
	}
	tc := c.pending[0]
	c.pending = c.pending[1:]
	return tc, true
}

// fill reads messages until one decodes into at least one case.
func (c *Consumer) fill(ctx context.Context) error {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return err
	}

	cases, err := decodeRequestMessage(msg)
	switch {
	case errors.Is(err, io.EOF):
		return io.EOF
	case err != nil:
		c.logger.Warn("dropping malformed case request",
			zap.String("topic", msg.Topic),
			zap.Int("partition", msg.Partition),
			zap.Int64("offset", msg.Offset),
			zap.Error(err),
		)
		c.reject(err)
		return nil
	}
	c.pending = cases
	return nil
}

func (c *Consumer) reject(err error) {
	if c.onRejected == nil {
		return
	}
	var rejected *rejectedRequest
	if !errors.As(err, &rejected) {
		return
	}
	c.onRejected(execution.RunReport{
		Case:   execution.TestCase{Suite: rejected.suite},
		Status: execution.StatusConfigError,
		Err:    err,
	})
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
