// cmd/estate-admin/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"estate-admin/internal/api"
	"estate-admin/internal/common/auth"
	"estate-admin/internal/common/camunda"
	"estate-admin/internal/common/config"
	"estate-admin/internal/common/observability"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var noWorkers bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API and, when camunda is enabled, the job workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if noWorkers {
				cfg.Camunda.Enabled = false
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&noWorkers, "no-workers", false, "serve the HTTP API only")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	a := newApp(cfg)
	defer a.Close()

	a.zap.Info("Starting estate-admin", zap.String("version", cfg.App.Version), zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, cfg.Tracing.JaegerEndpoint)
	defer obs.Shutdown()

	if err := a.connectPostgres(ctx, 15); err != nil {
		return err
	}
	if err := a.connectRedis(ctx, 10); err != nil {
		return err
	}
	if err := a.connectSearch(ctx, 15); err != nil {
		return err
	}
	if err := a.initCore(ctx); err != nil {
		return err
	}
	svc := a.services()

	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)
	authenticator := auth.NewAuthenticator(keycloak, a.redis.Client, auth.AuthenticatorOptions{
		AdminRole: cfg.Auth.AdminRole,
		AgentRole: cfg.Auth.AgentRole,
		CacheTTL:  time.Duration(cfg.Auth.CacheTTL) * time.Second,
		Accounts:  a.store,
		Logger:    a.log,
	})

	checks := map[string]api.Checker{
		"postgres": a.pg.Ping,
		"redis":    a.redis.Ping,
	}
	if a.es != nil {
		checks["elasticsearch"] = a.es.Ping
	}

	var workers []jobWorker
	if cfg.Camunda.Enabled {
		var zc *camunda.Client
		err := retryWithBackoff(func() error {
			var err error
			zc, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, a.zap, "Zeebe client initialization")
		if err != nil {
			return err
		}
		a.closers = append(a.closers, zc.Close)
		checks["zeebe"] = zc.HealthCheck

		workers, err = buildWorkers(cfg, zc, svc, a.log)
		if err != nil {
			return err
		}
		if err := registerWorkers(workers, a.log); err != nil {
			closeWorkers(workers)
			return err
		}
		defer closeWorkers(workers)
	}

	server := api.NewServer(api.Services{
		Verifications: svc.verifications,
		Reports:       svc.reports,
		Users:         svc.users,
		Stats:         svc.stats,
		Activity:      a.activity,
		Messages:      svc.messages,
		Leads:         svc.leads,
	}, authenticator, api.Options{
		Logger:        a.log,
		Observability: obs,
		Checks:        checks,
		Version:       cfg.App.Version,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout:      config.GetDuration(cfg.Server.WriteTimeout),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.zap.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.zap.Info("Shutdown signal received, draining requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.zap.Info("estate-admin stopped")
	return err
}
