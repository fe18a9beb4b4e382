package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skillbase/skillbase-backend/internal/cache"
	"github.com/skillbase/skillbase-backend/internal/clients/gcp"
	"github.com/skillbase/skillbase-backend/internal/clients/keycloak"
	"github.com/skillbase/skillbase-backend/internal/clients/lrs"
	"github.com/skillbase/skillbase-backend/internal/clients/mailchimp"
	"github.com/skillbase/skillbase-backend/internal/clients/sendgrid"
	"github.com/skillbase/skillbase-backend/internal/db"
	"github.com/skillbase/skillbase-backend/internal/handlers"
	"github.com/skillbase/skillbase-backend/internal/jobs/worker"
	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/middleware"
	"github.com/skillbase/skillbase-backend/internal/repos"
	"github.com/skillbase/skillbase-backend/internal/server"
	"github.com/skillbase/skillbase-backend/internal/services"
	"github.com/skillbase/skillbase-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	startupRepo := repos.NewStartupRepo(thePG, log)
	schoolRepo := repos.NewSchoolRepo(thePG, log)
	submissionRepo := repos.NewSubmissionRepo(thePG, log)
	certificateRepo := repos.NewIssuedCertificateRepo(thePG, log)
	outboxRepo := repos.NewStatementOutboxRepo(thePG, log)

	// Clients
	log.Info("Setting up upstream clients from main...")
	tokenCache := cache.NewTokenCacheFromEnv(log)
	keycloakClient, err := keycloak.NewFromEnv(log, tokenCache)
	if err != nil {
		log.Error("Could not init Keycloak client", "error", err)
		os.Exit(1)
	}
	mailchimpClient, err := mailchimp.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init Mailchimp client", "error", err)
		os.Exit(1)
	}
	lrsClient, err := lrs.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init LRS client", "error", err)
		os.Exit(1)
	}
	sendgridClient, err := sendgrid.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init Sendgrid client", "error", err)
		os.Exit(1)
	}
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, certificates will have no image", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	dispatcher := services.NewStatementDispatcher(thePG, log, outboxRepo)
	progressService := services.NewCourseProgressService(thePG, log, submissionRepo)
	certificateService := services.NewCertificateService(thePG, log, certificateRepo, bucketService)
	completionService := services.NewCompletionService(thePG, log, submissionRepo, schoolRepo, progressService, dispatcher, certificateService)
	passwordTokenService := services.NewPasswordTokenService(thePG, log, userRepo, schoolRepo, sendgridClient)
	accountService := services.NewAccountService(thePG, log, userRepo, startupRepo, schoolRepo, keycloakClient, mailchimpClient, passwordTokenService, dispatcher)

	// Handlers
	log.Info("Setting up handlers from main...")
	submissionHandler := handlers.NewSubmissionHandler(log, completionService)
	accountHandler := handlers.NewAccountHandler(log, accountService)
	marketingHandler := handlers.NewMarketingHandler(log, mailchimpClient)
	statementHandler := handlers.NewStatementHandler(log, outboxRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:    authMiddleware,
		SubmissionHandler: submissionHandler,
		AccountHandler:    accountHandler,
		MarketingHandler:  marketingHandler,
		StatementHandler:  statementHandler,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Worker
	statementWorker := worker.NewWorker(thePG, log, outboxRepo, lrsClient)
	statementWorker.Start(ctx)

	port := utils.GetEnv("PORT", "8080", log)
	srv := &http.Server{Addr: ":" + port, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
