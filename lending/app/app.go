package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/library-lending/lending/config"
	"github.com/Astemirdum/library-lending/lending/internal/handler"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/lending/internal/repository"
	"github.com/Astemirdum/library-lending/lending/internal/server"
	"github.com/Astemirdum/library-lending/lending/internal/service"
	"github.com/Astemirdum/library-lending/lending/migrations"
	"github.com/Astemirdum/library-lending/pkg/auth0"
	"github.com/Astemirdum/library-lending/pkg/circuit_breaker"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/Astemirdum/library-lending/pkg/logger"
	"github.com/Astemirdum/library-lending/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type storage struct {
	repo      repository.Repository
	dashboard repository.DashboardRepository
	accounts  repository.AccountRepository
	close     func()
}

func newStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		store := repository.NewMemoryStore()
		if err := seed(ctx, store); err != nil {
			return nil, err
		}
		log.Warn("in-memory storage, data is lost on restart")
		return &storage{repo: store, dashboard: store, accounts: store, close: func() {}}, nil
	}

	pool, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return nil, errors.Wrap(err, "db init")
	}
	repo, err := repository.NewRepository(pool, log)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "repo")
	}
	db := sqlx.NewDb(postgres.OpenDB(pool), "pgx")
	return &storage{
		repo:      repo,
		dashboard: repository.NewDashboardRepository(db, log),
		accounts:  repository.NewAccountRepository(pool, log),
		close: func() {
			_ = db.Close()
			pool.Close()
		},
	}, nil
}

// seed mirrors the rows the postgres seed migration inserts.
func seed(ctx context.Context, store *repository.MemoryStore) error {
	lib := store.AddLibrary(model.Library{
		ID:      1,
		Name:    "Библиотека имени 7 Непьющих",
		Address: "2-я Бауманская ул., д.5, стр.1",
		City:    "Москва",
	})
	_, err := store.CreateBook(ctx, model.Book{
		Title:     "Краткий курс C++ в 7 томах",
		Author:    "Бьерн Страуструп",
		ISBN:      "9785845918314",
		LibraryID: lib.ID,
	})
	return err
}

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "lending")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := newStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage", zap.Error(err))
	}
	defer st.close()

	opts := []service.Option{service.WithRules(cfg.Rules)}
	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			log.Fatal("kafka.NewProducer", zap.Error(err))
		}
		defer producer.Close()
		cb := circuit_breaker.New(20, 10*time.Second, 0.5, 3)
		opts = append(opts, service.WithPublisher(kafka.NewPublisher(producer, cb)))
	}
	svc := service.NewService(st.repo, st.dashboard, st.accounts, log, opts...)

	if cfg.Kafka.Enabled() {
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.LendingConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		defer group.Close()
		go kafka.Consume(ctx, group, handler.NewConsumer(svc.ImportBook, log), log, kafka.CatalogImportTopic)
	}

	hopts := []handler.Option{handler.WithAccountCheck()}
	if cfg.JWTKey != "" {
		hopts = append(hopts, handler.WithJWTKey([]byte(cfg.JWTKey)))
	}
	if cfg.Auth0.Enabled() {
		mw, err := auth0.MiddleWareWithConfig(cfg.Auth0)
		if err != nil {
			log.Fatal("auth0", zap.Error(err))
		}
		hopts = append(hopts, handler.WithAuthenticator(mw))
	}
	h := handler.New(svc, log, hopts...)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("storage", cfg.Storage))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	cancel()
	log.Info("Graceful shutdown finished")
}
