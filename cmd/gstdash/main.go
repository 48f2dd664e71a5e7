package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"gstdash/internal/cli"
	apphttp "gstdash/internal/http"
	"gstdash/internal/log"
	"gstdash/internal/session"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig()
	logger.Info("Starting gstdash", log.FieldOperation, log.OpStartup)

	res := cli.CreateResources(context.Background(), logger, cfg)
	res.Cache.StartCleanup(5 * time.Minute)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Source:   res.Source,
		Sessions: res.Sessions,
		Events:   res.Events,
		Credentials: session.Credentials{
			Username: cfg.DashboardUser,
			Password: cfg.DashboardPassword,
		},
		SessionTTL:       cfg.SessionTTL,
		VendorsPaginated: cfg.VendorsPaginated,
		Location:         cfg.Location(),
		LoginRateLimit:   cfg.LoginRateLimit,
		RequestTimeout:   cfg.APITimeout + 5*time.Second,
		Ready:            res.Ready,
		Logger:           logger,
	})
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		_ = res.Close()
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if err := res.Close(); err != nil {
			logger.Error("Failed to release backends", log.FieldError, err)
		}
	})

	logger.Info("Listening",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"sessions", cfg.SessionBackend,
		"checks", res.Checks())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = res.Close()
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
