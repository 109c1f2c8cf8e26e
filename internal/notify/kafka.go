package notify

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"github.com/dmehra2102/prod-golang-projects/clinicportal/pkg/tlsconfig"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.uber.org/zap"
)

func kafkaSecurity(cfg config.KafkaConfig) (sasl.Mechanism, *tls.Config, error) {
	var mech sasl.Mechanism
	if cfg.SASLUser != "" {
		m, err := scram.Mechanism(scram.SHA512, cfg.SASLUser, cfg.SASLPassword)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka sasl: %w", err)
		}
		mech = m
	}
	var tlsCfg *tls.Config
	if cfg.TLS {
		c, err := tlsconfig.Client("")
		if err != nil {
			return nil, nil, err
		}
		tlsCfg = c
	}
	return mech, tlsCfg, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher dispatches notices by publishing them to a topic, keyed by
// appointment so all events of one appointment stay ordered.
type KafkaPublisher struct {
	w   messageWriter
	log *zap.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, log *zap.Logger) (*KafkaPublisher, error) {
	mech, tlsCfg, err := kafkaSecurity(cfg)
	if err != nil {
		return nil, err
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				log.Error("publishing appointment notices failed", zap.Int("count", len(msgs)), zap.Error(err))
			}
		},
		Transport: &kafka.Transport{SASL: mech, TLS: tlsCfg},
	}
	return &KafkaPublisher{w: w, log: log}, nil
}

func (p *KafkaPublisher) Dispatch(ctx context.Context, n Notice) {
	value, err := json.Marshal(n)
	if err != nil {
		p.log.Error("encoding appointment notice", zap.Error(err))
		return
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.AppointmentID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	})
	if err != nil {
		p.log.Error("publishing appointment notice",
			zap.String("kind", string(n.Kind)),
			zap.String("appointment_id", n.AppointmentID.String()),
			zap.Error(err),
		)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads notices from the topic and delivers them. Offsets are
// committed after delivery, so a crash redelivers at most the in-flight
// notice.
type Consumer struct {
	r       messageReader
	handler Handler
	log     *zap.Logger
}

func NewConsumer(cfg config.KafkaConfig, handler Handler, log *zap.Logger) (*Consumer, error) {
	mech, tlsCfg, err := kafkaSecurity(cfg)
	if err != nil {
		return nil, err
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: cfg.Brokers,
		GroupID: cfg.GroupID,
		Topic:   cfg.Topic,
		Dialer: &kafka.Dialer{
			Timeout:       10 * time.Second,
			DualStack:     true,
			SASLMechanism: mech,
			TLS:           tlsCfg,
		},
		MinBytes: 1,
		MaxBytes: 1 << 20,
	})
	return &Consumer{r: r, handler: handler, log: log}, nil
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.r.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetching notice: %w", err)
		}

		var n Notice
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			// Undecodable messages are skipped rather than retried forever.
			c.log.Error("discarding malformed notice",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		} else {
			c.handler.Deliver(ctx, n)
		}

		if err := c.r.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("committing offset: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.r.Close()
}
