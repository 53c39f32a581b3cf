package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/alissawu/miniex/api/httpserver"
	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/internal/config"
	"github.com/alissawu/miniex/internal/logging"
	"github.com/alissawu/miniex/internal/outbox"
	"github.com/alissawu/miniex/internal/sequence"
	"github.com/alissawu/miniex/internal/snapshot"
	"github.com/alissawu/miniex/internal/wal"
	"github.com/alissawu/miniex/jobs/broadcaster"
	"github.com/alissawu/miniex/jobs/marketdata"
	"github.com/alissawu/miniex/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logging.New(cfg.Logging.Level)
	if err != nil {
		os.Stderr.WriteString("logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- Durability ----------------

	w, err := wal.Open(wal.Config{Dir: cfg.Data.WALDir})
	if err != nil {
		log.Fatal("wal open", zap.Error(err))
	}
	defer w.Close()

	var ob *outbox.Outbox
	if cfg.KafkaEnabled() {
		ob, err = outbox.Open(cfg.Data.OutboxDir)
		if err != nil {
			log.Fatal("outbox open", zap.Error(err))
		}
		defer ob.Close()
	}

	// ---------------- Recovery ----------------

	b := book.New()

	snapSeq, err := snapshot.Load(cfg.Data.SnapshotDir, b)
	if err != nil {
		log.Fatal("snapshot load", zap.Error(err))
	}

	lastSeq, err := service.Replay(cfg.Data.WALDir, b, snapSeq)
	if err != nil {
		log.Fatal("wal replay", zap.Error(err))
	}
	log.Info("recovery complete",
		zap.Uint64("snapshot_seq", snapSeq),
		zap.Uint64("last_seq", lastSeq),
		zap.Uint64("last_order_id", b.LastID()),
	)

	seq := sequence.New(lastSeq)

	// ---------------- Engine ----------------

	engine := service.New(b, w, ob, seq, log)

	go engine.RunSnapshotJob(ctx, cfg.Data.SnapshotDir, cfg.SnapshotInterval())

	// ---------------- Publication ----------------

	if cfg.KafkaEnabled() {
		bc, err := broadcaster.New(ob, cfg.Kafka.Brokers, cfg.Kafka.TradesTopic, log)
		if err != nil {
			log.Fatal("broadcaster init", zap.Error(err))
		}
		defer bc.Close()
		go bc.Run(ctx)

		md := marketdata.NewPublisher(
			engine, cfg.Kafka.Brokers, cfg.Kafka.TicksTopic, cfg.MarketdataInterval(), log)
		defer md.Close()
		go md.Run(ctx)
	}

	// ---------------- API ----------------

	srv := httpserver.NewServer(engine, log)
	go func() {
		if err := srv.Start(cfg.Server.Addr); err != nil {
			log.Fatal("api server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
}
