package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/iliyamo/table-reservation/internal/config"
	"github.com/iliyamo/table-reservation/internal/database"
	"github.com/iliyamo/table-reservation/internal/handler"
	"github.com/iliyamo/table-reservation/internal/middleware"
	"github.com/iliyamo/table-reservation/internal/queue"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/repository/memory"
	"github.com/iliyamo/table-reservation/internal/router"
	"github.com/iliyamo/table-reservation/internal/service"
	"github.com/iliyamo/table-reservation/internal/utils"
)

// backend bundles the stores for one STORE mode.
type backend struct {
	deps     service.Deps
	accounts handler.Accounts
	tokens   handler.RefreshTokens
	close    func() error
}

func openBackend(ctx context.Context, cfg config.Config, migrate, seed bool) (*backend, error) {
	if cfg.Store == config.StoreMemory {
		st := memory.New()
		if seed {
			if err := seedDemo(ctx, st, cfg.BcryptCost); err != nil {
				return nil, err
			}
		}
		return &backend{
			deps: service.Deps{
				Reservations: st, Tables: st, Locations: st, Users: st,
				PreOrders: st, Orders: st, Feedback: st,
			},
			accounts: st,
			tokens:   st,
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return mysqlBackend(db), nil
}

func mysqlBackend(db *sql.DB) *backend {
	users := repository.NewUserRepo(db)
	locations := repository.NewLocationRepo(db)
	orders := repository.NewOrderRepo(db)
	return &backend{
		deps: service.Deps{
			Reservations: repository.NewReservationRepo(db),
			Tables:       locations,
			Locations:    locations,
			Users:        users,
			PreOrders:    orders,
			Orders:       orders,
			Feedback:     orders,
		},
		accounts: users,
		tokens:   repository.NewTokenRepo(db),
		close:    db.Close,
	}
}

// eventSink returns the configured publisher and a shutdown hook.
func eventSink(cfg config.Config, logger *glog.Logger) (service.EventSink, func()) {
	const producer = "tablesd"
	switch cfg.EventSink {
	case config.SinkKafka:
		p := queue.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ReportQueue, producer, 256)
		p.Start()
		return p, p.Close
	case config.SinkNone:
		return queue.NopPublisher{Log: logger}, func() {}
	}
	return queue.NewRabbitPublisher(cfg.AMQPURL, cfg.ReportQueue, producer), func() {}
}

func newServeCmd() *cobra.Command {
	var migrate, seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := glog.New("tablesd")
			if cfg.Env == "prod" {
				logger.SetLevel(glog.INFO)
			} else {
				logger.SetLevel(glog.DEBUG)
			}

			be, err := openBackend(ctx, cfg, migrate, seed)
			if err != nil {
				return err
			}
			defer func() { _ = be.close() }()

			sink, closeSink := eventSink(cfg, logger)
			defer closeSink()

			feedback := utils.NewFeedbackTokens(cfg.JWTSecret, cfg.FeedbackTokenTTL)
			deps := be.deps
			deps.Tokens = feedback
			deps.Events = sink
			deps.QR = utils.NewQREncoder()
			svc := service.NewReservationService(deps, service.Config{
				Catalog:         cfg.Catalog,
				Boundary:        cfg.ConflictBoundary,
				EditCutoff:      cfg.EditCutoff,
				FeedbackBaseURL: cfg.FeedbackBaseURL,
			}, logger)

			rdb := config.NewRedisClient()
			if rdb == nil {
				log.Printf("redis unavailable: response cache and rate limiting disabled")
			} else {
				defer rdb.Close()
			}
			cacheCfg := config.LoadCacheConfig()

			e := echo.New()
			e.HideBanner = true
			e.Logger = logger
			e.Use(echomw.RequestID(), echomw.Logger(), echomw.Recover())
			router.Register(e, router.Handlers{
				Auth:         handler.NewAuthHandler(cfg, be.accounts, be.tokens),
				Public:       handler.NewPublicHandler(svc, feedback),
				Reservations: handler.NewReservationHandler(svc, middleware.NewCacheInvalidator(cacheCfg, rdb)),
			}, cfg.JWTSecret, router.Middleware{
				Cache:     middleware.NewRedisCache(cacheCfg, rdb),
				RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
			})

			addr := ":" + cfg.Port
			log.Printf("listening on %s (env=%s store=%s sink=%s)", addr, cfg.Env, cfg.Store, cfg.EventSink)
			errc := make(chan error, 1)
			go func() { errc <- e.Start(addr) }()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := e.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the MySQL schema before serving")
	cmd.Flags().BoolVar(&seed, "seed", false, "load demo data (memory store only)")
	return cmd
}
