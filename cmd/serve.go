package cmd

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vibast-solutions/ms-go-accounts/app/controller"
	accountsgrpc "github.com/vibast-solutions/ms-go-accounts/app/grpc"
	"github.com/vibast-solutions/ms-go-accounts/app/middleware"
	"github.com/vibast-solutions/ms-go-accounts/app/notify"
	"github.com/vibast-solutions/ms-go-accounts/app/repository"
	"github.com/vibast-solutions/ms-go-accounts/app/router"
	"github.com/vibast-solutions/ms-go-accounts/app/security"
	"github.com/vibast-solutions/ms-go-accounts/app/service"
	"github.com/vibast-solutions/ms-go-accounts/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  `Start both HTTP (Echo) and gRPC servers for the account service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeStore, err := openAccountStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open account store")
	}
	defer closeStore()

	sender, err := newMailSender(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure mail delivery")
	}

	tokens, err := security.NewTokenService(cfg.JWT)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure token service")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accountAuthService := service.NewAccountAuthService(
		repo,
		security.NewBcryptHasher(cfg.Password.BcryptCost),
		tokens,
		notify.NewMailer(sender, cfg.App.PublicBaseURL, cfg.Tokens.VerificationTTL, cfg.Tokens.ResetTTL),
		cfg,
		service.WithMetrics(service.NewMetrics(registry)),
	)

	grpcServer, err := startGRPCServer(cfg, accountAuthService)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to start gRPC server")
	}

	e := router.New(router.Deps{
		AccountAuth: controller.NewAccountAuthController(accountAuthService),
		Auth:        middleware.NewAuthMiddleware(accountAuthService),
		Gatherer:    registry,
	})
	go startHTTPServer(cfg, e, stop)

	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}
	grpcServer.GracefulStop()
}

// openAccountStore returns the configured repository and a function releasing
// its resources.
func openAccountStore(ctx context.Context, cfg *config.Config) (service.AccountRepository, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logrus.Warn("Using in-memory account store, data is lost on restart")
		return repository.NewMemoryAccountRepository(), func() {}, nil
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, nil, oops.Wrapf(err, "open database")
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, oops.Wrapf(err, "ping database")
	}
	if cfg.Store.AutoMigrate {
		if err = repository.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, oops.Wrapf(err, "migrate database")
		}
		logrus.Info("Database migrations applied")
	}

	return repository.NewAccountRepository(db), func() { _ = db.Close() }, nil
}

func newMailSender(cfg *config.Config) (notify.Sender, error) {
	if cfg.Mail.Host == "" {
		logrus.Warn("MAIL_HOST is not set, account emails are only logged")
		return notify.NewLogSender(), nil
	}
	return notify.NewSMTPSender(cfg.Mail)
}

func startHTTPServer(cfg *config.Config, e *echo.Echo, stop context.CancelFunc) {
	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Error("HTTP server stopped")
		stop()
	}
}

func startGRPCServer(cfg *config.Config, accountAuthService service.AccountAuthService) (*grpc.Server, error) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return nil, oops.With("addr", grpcAddr).Wrapf(err, "listen on gRPC port")
	}

	grpcServer := grpc.NewServer()
	accountsgrpc.RegisterAccountServiceServer(grpcServer, accountsgrpc.NewAccountServer(accountAuthService))

	go func() {
		logrus.WithField("addr", grpcAddr).Info("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logrus.WithError(err).Error("gRPC server stopped")
		}
	}()

	return grpcServer, nil
}
