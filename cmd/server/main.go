package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	accservice "campusbourses/internal/account/service"
	accstore "campusbourses/internal/account/store"
	appservice "campusbourses/internal/application/service"
	appstore "campusbourses/internal/application/store"
	"campusbourses/internal/audit"
	"campusbourses/internal/auth/revocation"
	"campusbourses/internal/document/blob"
	docservice "campusbourses/internal/document/service"
	docstore "campusbourses/internal/document/store"
	eligservice "campusbourses/internal/eligibility/service"
	eligstore "campusbourses/internal/eligibility/store"
	"campusbourses/internal/jwttoken"
	"campusbourses/internal/notification"
	notifservice "campusbourses/internal/notification/service"
	notifstore "campusbourses/internal/notification/store"
	"campusbourses/internal/platform/config"
	"campusbourses/internal/platform/httpserver"
	"campusbourses/internal/platform/logger"
	"campusbourses/internal/platform/metrics"
	"campusbourses/internal/platform/postgres"
	platformredis "campusbourses/internal/platform/redis"
	httptransport "campusbourses/internal/transport/http"
	"campusbourses/pkg/platform/tx"
)

const (
	tokenTTL        = 24 * time.Hour
	shutdownTimeout = 10 * time.Second
	auditBuffer     = 256
)

func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv()

	db, err := postgres.Open(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(migrateCtx, db); err != nil {
			return err
		}
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Stores and the transaction runner come in pairs: postgres stores with
	// the SQL runner, memory stores with the sharded-lock runner.
	var (
		runner     tx.Runner
		appStore   appstore.Store
		docStore   docstore.Store
		notifStore notifstore.Store
		eligStore  eligstore.Store
		accStore   accstore.Store
		auditStore audit.Store
	)
	if db != nil {
		runner = tx.NewSQLRunner(db)
		appStore = appstore.NewPostgres(db)
		docStore = docstore.NewPostgres(db)
		notifStore = notifstore.NewPostgres(db)
		eligStore = eligstore.NewPostgres(db)
		accStore = accstore.NewPostgres(db)
		auditStore = audit.NewPostgresStore(db)
		log.Info("using postgres storage")
	} else {
		runner = tx.NewMemoryRunner()
		appStore = appstore.NewInMemory()
		docStore = docstore.NewInMemory()
		notifStore = notifstore.NewInMemory()
		eligStore = eligstore.NewInMemory()
		accStore = accstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
		log.Info("using in-memory storage")
	}

	var revocations revocation.List
	if redisClient != nil {
		revocations = revocation.NewRedis(redisClient)
		log.Info("using redis token revocation")
	} else {
		revocations = revocation.NewMemory()
	}

	blobs, err := blob.NewFilesystem(cfg.UploadDir)
	if err != nil {
		return err
	}

	m := metrics.New()
	tokens := jwttoken.NewService(cfg.JWTSigningKey, "campusbourses")
	dispatcher := notification.NewDispatcher(m)
	auditPub := audit.NewPublisher(auditBuffer, log)
	auditWorker := audit.NewWorker(auditStore, auditPub.Inbox(), log)

	apps := appservice.NewService(appStore, notifStore, dispatcher, runner, auditPub, m, log)
	docs := docservice.NewService(docStore, blobs, notifStore, dispatcher, runner, auditPub, m, log)
	notifs := notifservice.NewService(notifStore, log)
	rules := eligservice.NewService(eligStore, log)
	accounts := accservice.NewService(accStore, tokens, notifStore, dispatcher,
		runner, auditPub, log, apps, docs, notifs)

	handler := httptransport.NewHandler(httptransport.Config{
		Logger:        log,
		Applications:  apps,
		Documents:     docs,
		Notifications: notifs,
		Rules:         rules,
		Accounts:      accounts,
		Revocations:   revocations,
		TokenTTL:      tokenTTL,
	})
	router := httptransport.NewRouter(handler, tokens, revocations, m, config.RequestTimeout)
	server := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
