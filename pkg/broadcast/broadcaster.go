// Package broadcast publishes executed trades to Kafka for downstream
// consumers (clearing, market data, analytics). Delivery is
// asynchronous: the submit path only enqueues; a single goroutine
// drains the queue into a synchronous producer.
package broadcast

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
)

type Broadcaster struct {
	producer sarama.SyncProducer
	topic    string
	queue    chan *engine.TradeRecord
	log      *zap.SugaredLogger
}

func New(brokers []string, topic string, logger *zap.SugaredLogger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		producer: producer,
		topic:    topic,
		queue:    make(chan *engine.TradeRecord, 4096),
		log:      logger,
	}, nil
}

// Sink returns the fan-out hook for the exchange. A full queue drops
// the trade from the stream, never blocking matching; the pebble
// journal remains the source of truth.
func (b *Broadcaster) Sink() func(*engine.TradeRecord) {
	return func(t *engine.TradeRecord) {
		select {
		case b.queue <- t:
		default:
			b.log.Warnw("broadcast_queue_full", "seq", t.Seq)
		}
	}
}

// Run drains the queue until ctx is cancelled.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Infow("broadcaster_started", "topic", b.topic)
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-b.queue:
			b.publish(t)
		}
	}
}

func (b *Broadcaster) publish(t *engine.TradeRecord) {
	payload, err := json.Marshal(t)
	if err != nil {
		b.log.Errorw("trade_encode_failed", "seq", t.Seq, "err", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(t.ID.String()),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err := b.producer.SendMessage(msg); err != nil {
		b.log.Errorw("trade_publish_failed", "seq", t.Seq, "err", err)
	}
}

func (b *Broadcaster) Close() error { return b.producer.Close() }
