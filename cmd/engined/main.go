package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tuannm-coder/MatchingEngine/params"
	"github.com/tuannm-coder/MatchingEngine/pkg/api"
	"github.com/tuannm-coder/MatchingEngine/pkg/broadcast"
	"github.com/tuannm-coder/MatchingEngine/pkg/engine"
	"github.com/tuannm-coder/MatchingEngine/pkg/exchange"
	"github.com/tuannm-coder/MatchingEngine/pkg/storage"
	"github.com/tuannm-coder/MatchingEngine/pkg/util"
)

func main() {
	cfg := params.LoadFromEnv("") // .env in the working directory, if any

	logger, err := util.NewLogger(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("starting",
		"symbol", cfg.Market.Symbol,
		"price_precision", cfg.Market.PricePrecision,
		"maker_fee", cfg.Market.MakerFeeRate,
		"taker_fee", cfg.Market.TakerFeeRate)

	// ---- Engine ----
	eng := engine.New(engine.Config{
		StepSize:       cfg.Market.StepSize,
		PricePrecision: cfg.Market.PricePrecision,
		MakerFeeRate:   cfg.Market.MakerFeeRate,
		TakerFeeRate:   cfg.Market.TakerFeeRate,
	})

	// ---- Persistence ----
	wal, err := storage.NewFileWAL(cfg.Node.WALPath)
	if err != nil {
		sugar.Fatalw("wal_open_failed", "path", cfg.Node.WALPath, "err", err)
	}
	defer wal.Close()

	trades, err := storage.NewTradeStore(filepath.Join(cfg.Node.DataDir, "trades"))
	if err != nil {
		sugar.Fatalw("trade_store_open_failed", "err", err)
	}
	defer trades.Close()

	// ---- Exchange ----
	ex := exchange.New(cfg.Market.Symbol, eng, util.RealClock{}, wal, trades, sugar)
	if err := ex.Replay(cfg.Node.WALPath); err != nil {
		sugar.Fatalw("wal_replay_failed", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Trade fan-out ----
	srv := api.NewServer(ex, sugar)
	ex.AddTradeSink(srv.TradeSink())

	if len(cfg.Node.KafkaBrokers) > 0 {
		bc, err := broadcast.New(cfg.Node.KafkaBrokers, cfg.Node.KafkaTopic, sugar)
		if err != nil {
			sugar.Fatalw("broadcaster_init_failed", "brokers", cfg.Node.KafkaBrokers, "err", err)
		}
		defer bc.Close()
		ex.AddTradeSink(bc.Sink())
		go bc.Run(ctx)
	}

	// ---- Serve ----
	go func() {
		if err := srv.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_failed", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	sugar.Infow("shutting_down")
}
