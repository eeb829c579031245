package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/cryptomaniac/internal/config"
	"github.com/vitos/cryptomaniac/internal/infrastructure/coingecko"
	"github.com/vitos/cryptomaniac/internal/infrastructure/logger"
	"github.com/vitos/cryptomaniac/internal/usecase"
	"github.com/vitos/cryptomaniac/internal/web"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the yaml config file")
	flag.Parse()

	// 1. Load Config
	if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.CoinGecko.APIKey == "" {
		log.Warn("COINGECKO_API_KEY is not set, requests are sent unauthenticated")
	}

	// 3. Init API client
	client := coingecko.NewClient(cfg.CoinGecko.APIKey, cfg.CoinGecko.BaseURL, cfg.CoinGecko.Timeout, log)

	// 4. Init views
	session := usecase.NewSession(cfg.Dashboard.Currency)
	list := usecase.NewListView(client, session, cfg.Dashboard.PollInterval, log)
	detail := usecase.NewDetailView(client, session, log)
	if err := detail.SetDefaultRange(cfg.Dashboard.ChartDays); err != nil {
		log.Fatal("Invalid chart range", zap.Error(err))
	}
	searchCfg := usecase.SearchConfig{
		Debounce:  cfg.Dashboard.SearchDebounce,
		MinLength: cfg.Dashboard.SearchMinLength,
		Limit:     cfg.Dashboard.SearchLimit,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 5. Start polling
	list.Start(ctx)
	log.Info("Market polling started",
		zap.String("currency", session.Currency()),
		zap.Duration("interval", cfg.Dashboard.PollInterval))

	// 6. Start Server
	server := web.NewServer(cfg.Server.Port, client, session, list, detail, searchCfg, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 7. Wait for Shutdown
	<-stop

	log.Info("Shutting down...")
	list.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}
