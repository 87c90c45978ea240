package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"IndexSync/internal/collector"
	"IndexSync/internal/config"
	"IndexSync/internal/notifier"
	"IndexSync/internal/recorder"
	"IndexSync/internal/scheduler"
	"IndexSync/internal/updater"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] IndexSync starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	loc := cfg.Location()

	// Init sources
	twse := collector.NewTWSEFetcher(cfg.TWSE.URL, cfg.Proxy, cfg.Timeout, loc)
	yahoo := collector.NewYahooFetcher(cfg.Yahoo.Symbol, loc, cfg.Proxy, cfg.Timeout)
	col := collector.NewCollector(twse, yahoo, cfg.TWSE.RequestInterval)
	log.Printf("[INFO] sources: %s (close, trading value), %s (open/high/low)", twse.Name(), yahoo.Name())

	runner := updater.NewRunner(col, cfg.Series.File, loc)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, runner, rec, tn, loc)
	sched.Symbol = cfg.Yahoo.Symbol
	sched.TailRows = cfg.Series.TailRows

	if cfg.Schedule.Cron == "" {
		if _, err := sched.RunNow(); err != nil {
			rec.Close()
			log.Fatalf("[FATAL] update: %v", err)
		}
		log.Println("[INFO] update finished")
		return
	}

	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, updating now")
		go sched.RunTask()
	}

	log.Printf("[INFO] IndexSync is running on %q. Press Ctrl+C to stop.", cfg.Schedule.Cron)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
}
