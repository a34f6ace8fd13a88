package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Leganyst/service-marketplace/internal/grpcapi"
	"github.com/Leganyst/service-marketplace/internal/server"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the gRPC discovery server",
	Long: `Runs migrations and seeds the service catalog, then starts the HTTP API
and the gRPC discovery server. Stops gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations on start")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !skipMigrate {
		if err := a.migrate(ctx); err != nil {
			return err
		}
	}

	svc := a.services()
	errCh := make(chan error, 2)

	var httpSrv *server.Server
	if a.cfg.HTTP.Addr != "" {
		router := server.NewRouter(a.logger, server.RouterDependencies{
			Services:       svc,
			Health:         server.DBHealthService{DB: a.db},
			AllowedOrigins: a.cfg.HTTP.AllowedOrigins,
		})
		httpSrv = server.New(a.logger, a.cfg.HTTP, router)
		go func() { errCh <- httpSrv.Start() }()
	}

	var grpcSrv *grpcapi.Server
	if a.cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", a.cfg.GRPC.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.cfg.GRPC.Addr, err)
		}
		grpcSrv = grpcapi.NewServer(a.logger, svc.Discovery)
		go func() { errCh <- grpcSrv.Serve(lis) }()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			a.logger.Error("server stopped unexpectedly", zap.Error(runErr))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if httpSrv != nil {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	return runErr
}
