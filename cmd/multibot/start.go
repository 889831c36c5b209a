package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/core"
	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/internal/store"
)

var (
	configFile string

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start multibot main process",
		Long:  "Start multibot main process, connect the configured platform bots and dispatch messages to handlers",
		Run: func(cmd *cobra.Command, args []string) {
			config, err := core.LoadConfig(configFile)
			if err != nil {
				log.Fatalf("Failed to load config: %v", err)
			}

			fmt.Printf("Starting multibot with config: %s\n", configFile)
			fmt.Printf("Store path: %s\n", config.Store.Path)

			if err := logger.Init(config.Logging); err != nil {
				log.Fatalf("Failed to initialize logger: %v", err)
			}

			logger.WithFields(logrus.Fields{
				"config_file": configFile,
				"log_level":   config.Logging.Level,
				"log_file":    config.Logging.File,
			}).Info("logger-initialized")

			st, err := store.NewSQLiteStore(config.Store.Path)
			if err != nil {
				log.Fatalf("Failed to open store: %v", err)
			}
			defer st.Close()

			engine := core.NewEngine(config, st)

			for name, botConfig := range config.Bots {
				if !botConfig.Enabled {
					log.Printf("Bot %s is disabled, skipping", name)
					continue
				}

				switch models.Platform(name) {
				case models.PlatformDiscord:
					engine.RegisterAdapter(bot.NewDiscordBot(botConfig.Token))
					log.Printf("Registered %s bot adapter", name)

				case models.PlatformTelegram:
					engine.RegisterAdapter(bot.NewTelegramBot(botConfig.Token))
					log.Printf("Registered %s bot adapter", name)

				case models.PlatformTwitch:
					engine.RegisterAdapter(bot.NewTwitchBot(botConfig.Username, botConfig.Token, botConfig.Channels))
					log.Printf("Registered %s bot adapter", name)

				default:
					log.Printf("Warning: Bot platform '%s' not implemented", name)
				}
			}

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			engineErrChan := make(chan error, 1)
			go func() {
				fmt.Println("\nmultibot engine starting...")
				fmt.Println("Press Ctrl+C to stop")
				engineErrChan <- engine.Run(ctx)
			}()

			select {
			case sig := <-sigChan:
				log.Printf("Received signal: %v, shutting down gracefully...", sig)
				engine.Stop()
				<-engineErrChan
			case err := <-engineErrChan:
				if err != nil {
					log.Fatalf("Engine error: %v", err)
				}
			}

			log.Println("multibot stopped")
		},
	}
)

func init() {
	startCmd.Flags().StringVarP(&configFile, "config", "c", "config.yaml", "Configuration file path")
}
