// Package broadcaster drains the trade outbox to Kafka. Delivery is
// at-least-once: entries are marked SENT before publish and ACKED only
// after the broker confirms, so a crash in between redelivers.
package broadcaster

import (
	"context"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/alissawu/miniex/internal/outbox"
)

const maxDeliveryAttempts = 10

type Broadcaster struct {
	ob       *outbox.Outbox
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	log      *zap.Logger
}

func New(ob *outbox.Outbox, brokers []string, topic string, log *zap.Logger) (*Broadcaster, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Broadcaster{
		ob:       ob,
		producer: producer,
		topic:    topic,
		interval: 250 * time.Millisecond,
		log:      log,
	}, nil
}

// Run drains pending entries until the context is cancelled. Blocks;
// run it in its own goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", zap.String("topic", b.topic))

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.drainOnce()
		}
	}
}

func (b *Broadcaster) drainOnce() {
	err := b.ob.ScanPending(func(rec *outbox.Record) error {
		if rec.Retries >= maxDeliveryAttempts {
			b.log.Error("trade delivery gave up",
				zap.Uint64("seq", rec.Seq), zap.Uint32("retries", rec.Retries))
			return b.ob.MarkFailed(rec.Seq)
		}

		// SENT before publish keeps the crash window on the redeliver
		// side rather than the data-loss side.
		if err := b.ob.MarkSent(rec.Seq); err != nil {
			return err
		}

		_, _, err := b.producer.SendMessage(&sarama.ProducerMessage{
			Topic: b.topic,
			Key:   sarama.StringEncoder(strconv.FormatUint(rec.Seq, 10)),
			Value: sarama.ByteEncoder(rec.Payload),
		})
		if err != nil {
			b.log.Warn("trade publish failed, will retry",
				zap.Uint64("seq", rec.Seq), zap.Error(err))
			return nil
		}

		return b.ob.MarkAcked(rec.Seq)
	})
	if err != nil {
		b.log.Error("outbox scan", zap.Error(err))
	}
}

func (b *Broadcaster) Close() error {
	return b.producer.Close()
}
