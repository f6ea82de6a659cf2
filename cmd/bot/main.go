package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/api"
	"github.com/minya/videodlbot/internal/app"
	"github.com/minya/videodlbot/internal/bot"
	"github.com/minya/videodlbot/internal/domain"
	"github.com/minya/videodlbot/internal/infrastructure"
	"github.com/minya/videodlbot/pkg/logger"
)

const version = "1.0.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "videodlbot",
	Short: "Telegram bot that downloads videos and delivers them inline or via cloud storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if config.Telegram.Debug && config.Logging.Level == "info" {
		config.Logging.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting videodlbot",
		zap.String("version", version),
		zap.Int64("max_file_size_mib", config.Download.MaxFileSizeMiB),
		zap.Int64("direct_limit_mib", config.Download.DirectLimitMiB),
		zap.Int("allowed_users", len(config.Telegram.AllowedUsers)),
		zap.Bool("cookie_file", config.Download.CookieFile != ""),
		zap.Bool("storage_configured", config.Storage.Configured()),
		zap.Bool("debug", config.Telegram.Debug))

	if err := os.MkdirAll(config.Download.WorkDir, 0755); err != nil {
		return fmt.Errorf("failed to create work directory: %w", err)
	}

	records, err := infrastructure.NewSQLiteRecordRepository(config.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize history repository: %w", err)
	}
	defer records.Close()

	var store domain.ObjectStore
	if config.Storage.Configured() {
		minioStore, err := infrastructure.NewMinioStore(&config.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		store = minioStore
	} else {
		log.Warn("Overflow storage not configured; oversize artifacts will be rejected")
	}

	ytdlp := infrastructure.NewYtdlpClient(&config.Download, config.Telegram.Debug, log)
	router := app.NewDeliveryRouter(store, config.Download.DirectLimit(), log)
	session := app.NewSession(&config.Download, ytdlp, ytdlp, router, records, log)

	tgBot, err := bot.New(&config.Telegram, session, store, log)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram bot: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Status API
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: api.SetupRouter(records, log),
	}
	go func() {
		log.Info("Status API listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Status API failed", zap.Error(err))
		}
	}()

	// Bot update loop
	botDone := make(chan error, 1)
	go func() {
		botDone <- tgBot.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Received shutdown signal")
	case err := <-botDone:
		if err != nil && err != context.Canceled {
			log.Error("Bot stopped", zap.Error(err))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Status API forced to shutdown", zap.Error(err))
	}

	log.Info("Bot exited")
	return nil
}
