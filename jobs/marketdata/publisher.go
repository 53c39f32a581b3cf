// Package marketdata publishes periodic top-of-book ticks.
package marketdata

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/service"
)

// Tick is one top-of-book observation. Absent sides are null.
type Tick struct {
	V   int             `json:"v"`
	TS  int64           `json:"ts"`
	Bid *book.TopOfBook `json:"bid"`
	Ask *book.TopOfBook `json:"ask"`
}

type Publisher struct {
	engine   *service.Engine
	writer   *kafka.Writer
	interval time.Duration
	log      *zap.Logger

	lastBid book.TopOfBook
	lastAsk book.TopOfBook
	hasBid  bool
	hasAsk  bool
	primed  bool
}

func NewPublisher(
	engine *service.Engine,
	brokers []string,
	topic string,
	interval time.Duration,
	log *zap.Logger,
) *Publisher {
	return &Publisher{
		engine: engine,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		interval: interval,
		log:      log,
	}
}

// Run publishes a tick whenever the top of book changed since the last
// interval. Blocks; run it in its own goroutine.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info("marketdata publisher started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishOnce(ctx)
		}
	}
}

func (p *Publisher) publishOnce(ctx context.Context) {
	bid, hasBid := p.engine.BestBid()
	ask, hasAsk := p.engine.BestAsk()

	if p.primed &&
		hasBid == p.hasBid && hasAsk == p.hasAsk &&
		bid == p.lastBid && ask == p.lastAsk {
		return
	}
	p.primed = true
	p.lastBid, p.lastAsk = bid, ask
	p.hasBid, p.hasAsk = hasBid, hasAsk

	tick := Tick{V: 1, TS: time.Now().UnixNano()}
	if hasBid {
		tick.Bid = &bid
	}
	if hasAsk {
		tick.Ask = &ask
	}

	payload, err := json.Marshal(tick)
	if err != nil {
		p.log.Error("encode tick", zap.Error(err))
		return
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{Value: payload}); err != nil {
		p.log.Warn("tick publish failed", zap.Error(err))
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
