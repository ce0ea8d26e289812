package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/translatebot/internal/bot"
	"github.com/example/translatebot/internal/config"
	"github.com/example/translatebot/internal/content"
	"github.com/example/translatebot/internal/database"
	"github.com/example/translatebot/internal/logger"
	"github.com/example/translatebot/internal/practice"
	"github.com/example/translatebot/internal/scheduler"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// repository is everything the bot, the practice service and the reminders need from storage
type repository interface {
	practice.Repository
	scheduler.UserLister
	bot.UserRepository
}

type storage struct {
	*database.UserProgressRepository
	*database.UserRepository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "translatebot: %v\n", err)
		os.Exit(1)
	}
}

// run wires the bot and blocks until SIGINT or SIGTERM
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	// Создаем контекст, который отменяется по сигналу
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loadCfg := content.DefaultLoadConfig(cfg.Content.Dir)
	loadCfg.SourceField = cfg.Content.SourceField
	loadCfg.TargetField = cfg.Content.TargetField
	loadCfg.Language = cfg.Content.Language
	store, err := content.Load(loadCfg, log)
	if err != nil {
		log.Error("failed to load content", "dir", cfg.Content.Dir, "error", err)
		return fmt.Errorf("failed to load content: %w", err)
	}
	log.Info("content loaded", "sets", store.Names())

	// Подключаемся к базе данных
	var repo repository
	if cfg.Database.Type == config.DBTypeMemory {
		log.Warn("using in-memory storage, progress is lost on restart")
		repo = database.NewMemoryStore()
	} else {
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			log.Error("failed to connect to database", "type", cfg.Database.Type, "error", err)
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = storage{
			UserProgressRepository: database.NewUserProgressRepository(db),
			UserRepository:         database.NewUserRepository(db),
		}
	}

	svc := practice.NewService(store, repo, log)

	b, err := bot.New(cfg.Telegram.Token, svc, repo, &bot.BotConfig{
		UpdateTimeout: cfg.Telegram.UpdateTimeout,
		Debug:         cfg.Telegram.Debug,
	}, log)
	if err != nil {
		log.Error("failed to create bot", "error", err)
		return err
	}

	var sched *scheduler.Scheduler
	if cfg.Reminders.Enabled {
		sched = scheduler.New(b, repo, svc, cfg.Reminders.Time, cfg.Reminders.Location, log)
		if err := sched.Start(ctx); err != nil {
			log.Error("failed to start scheduler", "error", err)
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		// Даем время на graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if sched != nil {
			sched.Stop()
		}
		return b.Stop(shutdownCtx)
	})

	log.Info("bot started, press Ctrl+C to stop")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("bot stopped with error", "error", err)
		return fmt.Errorf("bot stopped: %w", err)
	}
	log.Info("bot stopped successfully")
	return nil
}
