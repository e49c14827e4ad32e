package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sourcegraph/conc"

	"github.com/vglazkov/euro-oracle/external/elenasport"
	"github.com/vglazkov/euro-oracle/external/telegram"
	"github.com/vglazkov/euro-oracle/internal/config"
	"github.com/vglazkov/euro-oracle/internal/infrastructure/repository/postgres"
	"github.com/vglazkov/euro-oracle/internal/interfaces/statusapi"
	"github.com/vglazkov/euro-oracle/internal/platform/logging"
	"github.com/vglazkov/euro-oracle/internal/usecase"
)

// App owns every long-running component of the bot: the fixture sync
// loop, the Telegram poll loop and the status server.
type App struct {
	cfg config.Config
	log *logging.Logger

	db       *sqlx.DB
	bot      *telegram.Bot
	notify   *usecase.NotifyService
	syncSvc  *usecase.SyncService
	convSvc  *usecase.ConversationService
	statusAP *statusapi.Server
}

func New(cfg config.Config, log *logging.Logger) (*App, error) {
	if log == nil {
		log = logging.NewNop()
	}

	db, err := sqlx.Connect("postgres", cfg.DBURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	log.Info("database connected", "db", dbNameFromURL(cfg.DBURL))

	pg := postgres.NewDB(db)
	teamRepo := postgres.NewTeamRepository(pg)
	matchRepo := postgres.NewMatchRepository(pg)
	userRepo := postgres.NewUserRepository(pg)
	predictionRepo := postgres.NewPredictionRepository(pg)
	userlogRepo := postgres.NewUserlogRepository(pg)

	bot, err := telegram.NewBot(telegram.Config{
		BaseURL:     cfg.TelegramAPIBaseURL,
		Token:       cfg.BotToken,
		PollTimeout: cfg.TelegramPollTime,
		Logger:      log,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build telegram bot: %w", err)
	}

	notify, err := usecase.NewNotifyService(bot, cfg.NotifyWorkers, log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build notify service: %w", err)
	}

	feed := elenasport.NewClient(elenasport.ClientConfig{
		HTTPClient:          &http.Client{Timeout: cfg.DataAPITimeout},
		BaseURL:             cfg.DataAPIBaseURL,
		AuthURL:             cfg.DataAuthURL,
		APIToken:            cfg.DataAPIToken,
		CircuitFailureCount: cfg.DataCircuitFailureCount,
		CircuitOpenTimeout:  cfg.DataCircuitOpenTimeout,
		Logger:              log,
	})

	scoring := usecase.NewScoringService(predictionRepo, log)
	syncSvc := usecase.NewSyncService(
		feed,
		pg,
		matchRepo,
		teamRepo,
		scoring,
		notify,
		cfg.SeasonID,
		cfg.SyncInterval,
		log,
	)

	loc, err := time.LoadLocation(cfg.DisplayTZ)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load display timezone: %w", err)
	}

	convSvc := usecase.NewConversationService(
		userRepo,
		matchRepo,
		predictionRepo,
		userlogRepo,
		bot,
		loc,
		log,
	)

	app := &App{
		cfg:     cfg,
		log:     log,
		db:      db,
		bot:     bot,
		notify:  notify,
		syncSvc: syncSvc,
		convSvc: convSvc,
	}
	if cfg.StatusEnabled {
		app.statusAP = statusapi.NewServer(cfg.StatusAddr, cfg.ServiceName, cfg.ServiceVersion, syncSvc, log)
	}
	return app, nil
}

// Run starts every loop and blocks until the context is cancelled,
// then shuts the components down in reverse order.
func (a *App) Run(ctx context.Context) error {
	var wg conc.WaitGroup

	wg.Go(func() {
		a.syncSvc.Run(ctx)
	})
	wg.Go(func() {
		a.bot.Poll(ctx, a.convSvc.HandleMessage)
	})
	if a.statusAP != nil {
		wg.Go(func() {
			if err := a.statusAP.ListenAndServe(); err != nil {
				a.log.Error("status server failed", "error", err)
			}
		})
	}

	<-ctx.Done()

	if a.statusAP != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.statusAP.Shutdown(shutdownCtx); err != nil {
			a.log.Error("status server shutdown failed", "error", err)
		}
	}

	wg.Wait()
	a.notify.Close()

	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
