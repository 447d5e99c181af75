package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/floodgate/internal/bot"
	"github.com/iamwavecut/floodgate/internal/config"
	"github.com/iamwavecut/floodgate/internal/db/sqlite"
	"github.com/iamwavecut/floodgate/internal/flood"
	"github.com/iamwavecut/floodgate/internal/infra"
	"github.com/iamwavecut/floodgate/internal/infrastructure/telegram"
	"github.com/iamwavecut/floodgate/internal/lifecycle"
	"github.com/iamwavecut/floodgate/internal/moderation"
	"github.com/iamwavecut/floodgate/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	log.SetFormatter(&log.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02 15:04:05",
		QuoteEmptyFields: true,
	})
	log.SetOutput(os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetLevel(log.Level(cfg.LogLevel))
	log.Traceln("loaded config")

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithError(err).Fatalln("cant initialize observability")
	}

	dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(cfg.DotPath), cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatalln("cant open violation ledger")
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.WithError(err).Error("cant close violation ledger")
		}
	}()

	tgbot, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.WithError(err).Fatalln("cant initialize bot api")
	}
	log.Infof("authorized as @%s", tgbot.Self.UserName)

	tracker := flood.NewTracker(cfg.Flood, cfg.IsExempt)
	policy := flood.NewPolicy(cfg.Escalation.Ladder)
	operations := telegram.NewOperations(tgbot)
	notifier := telegram.NewAdminNotifier(tgbot, cfg)
	coordinator := moderation.NewCoordinator(cfg, tracker, policy, dbClient, operations, notifier)

	runtime := lifecycle.NewRuntime(
		moderation.NewMaintenance(tracker, dbClient, cfg.Escalation),
	)
	if err := runtime.Start(ctx); err != nil {
		log.WithError(err).Fatalln("cant start components")
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Error("cant stop components")
		}
	}()

	service := bot.NewService(tgbot, dbClient, cfg)
	processor := bot.NewUpdateProcessor(service, coordinator, operations)

	g, runCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-runCtx.Done()
		tgbot.StopReceivingUpdates()
		return nil
	})
	g.Go(func() error {
		select {
		case <-infra.MonitorExecutable(runCtx):
			log.Info("executable replaced, shutting down for restart")
			cancel()
		case <-runCtx.Done():
		}
		return nil
	})
	g.Go(func() error {
		infra.GoRecoverable(-1, "process_updates", func() {
			updateConfig := api.NewUpdate(0)
			updateConfig.Timeout = 60
			for update := range tgbot.GetUpdatesChan(updateConfig) {
				if err := processor.Process(runCtx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
			}
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Errorln("run group finished with error")
	}
	log.Info("no more updates")
}
