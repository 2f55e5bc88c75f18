package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pressurediary/bot"

	_ "pressurediary/bots/PressureDiary"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const stopOnFailure = false

// getLogger creates a logger in the given namespace
func getLogger(ns, level string) (*zap.SugaredLogger, func() error) {
	cfg := zap.NewDevelopmentConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}

	logger, err := cfg.Build(zap.Fields(zap.String("ns", ns)))
	if err != nil {
		logger, _ = zap.NewDevelopment(zap.Fields(zap.String("ns", ns)))
	}

	return logger.Sugar(), logger.Sync
}

// readConfig reads the configuration file given by the flag or by CONFIG_FILE
func readConfig(cmd *cobra.Command, log *zap.SugaredLogger) *viper.Viper {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_FILE")
	}
	if cfgFile == "" {
		log.Warn("configuration file isn't set, relying on environment variables")
	}

	v, err := bot.ReadConfig(cfgFile)
	if err != nil {
		log.Fatalw("couldn't read configuration", "err", err)
	}
	return v
}

// runBots initializes the bots and runs them until a termination signal
func runBots(cmd *cobra.Command, _ []string) {
	log, syncLogs := getLogger("Global", "info")
	defer syncLogs()

	v := readConfig(cmd, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	started := 0
	for _, rec := range bot.GetThemAll() {
		cfg, err := bot.BotConfig(v, rec.Name)
		if err != nil {
			log.Errorw("couldn't configure bot", "bot", rec.Name, "err", err)
			if stopOnFailure {
				return
			}
			continue
		}

		s, syncBotLogs := getLogger(rec.Name, cfg.LogLevel)
		defer syncBotLogs()

		bctx, err := rec.Bot.Init(cfg, s)
		if err != nil {
			s.Errorw("failed to initialize bot", "err", err)
			if stopOnFailure {
				return
			}
			continue
		}

		b := rec.Bot
		g.Go(func() error {
			err := b.Run(ctx, bctx)
			if err != nil {
				s.Errorw("bot stopped", "err", err)
			}
			// unless stopOnFailure, a failing bot doesn't stop the others
			if stopOnFailure {
				return err
			}
			return nil
		})
		started++
	}

	if started == 0 {
		log.Error("no bots are running")
		return
	}

	log.Infof("%d bot(s) started", started)
	if err := g.Wait(); err != nil {
		log.Errorw("botfarm stopped", "err", err)
		return
	}
	log.Info("botfarm stopped")
}

// migrateBots brings database schemas of all bots up to date
func migrateBots(cmd *cobra.Command, _ []string) {
	log, syncLogs := getLogger("Global", "info")
	defer syncLogs()

	v := readConfig(cmd, log)

	for _, rec := range bot.GetThemAll() {
		m, ok := rec.Bot.(bot.Migrator)
		if !ok {
			continue
		}

		cfg, err := bot.BotConfig(v, rec.Name)
		if err != nil {
			log.Errorw("couldn't configure bot", "bot", rec.Name, "err", err)
			continue
		}

		s, syncBotLogs := getLogger(rec.Name, cfg.LogLevel)
		defer syncBotLogs()

		if err := m.Migrate(cfg, s); err != nil && stopOnFailure {
			return
		}
	}
}

// Botfarm entry point
func main() {
	root := &cobra.Command{
		Use:   "botfarm",
		Short: "Runs the Telegram bots of the farm",
		Run:   runBots,
	}
	root.PersistentFlags().StringP("config", "c", "", "configuration file (JSON), defaults to $CONFIG_FILE")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Run all configured bots until interrupted",
			Run:   runBots,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations of all bots",
			Run:   migrateBots,
		},
	)

	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
