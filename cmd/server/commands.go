package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	"github.com/example/bakery/internal/config"
	"github.com/example/bakery/internal/database"
	"github.com/example/bakery/internal/handlers"
	"github.com/example/bakery/internal/metrics"
	"github.com/example/bakery/internal/middleware"
	"github.com/example/bakery/internal/routes"
	"github.com/example/bakery/internal/services"
)

// serveCmd starts the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

// reconcileCmd rebuilds embedded arrays once and exits.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Rebuild every embedded array from the canonical collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		store, err := database.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		report, err := services.NewReconciler(store, nil).Run(ctx)
		if err != nil {
			return err
		}
		for link, n := range report {
			fmt.Printf("%s: %d owners rebuilt\n", link, n)
		}
		return nil
	},
}

func serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	store, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	m := metrics.New()

	app := fiber.New(fiber.Config{
		AppName:      "Bakery Backend",
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.Metrics(m))

	routes.Register(app, routes.Dependencies{
		Store:    store,
		Metrics:  m,
		Social:   services.NewKakaoService(cfg.KakaoClientID, cfg.KakaoAuthURL, cfg.KakaoAPIURL),
		Notifier: services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat),
	}, cfg)

	if cfg.ReconcileInterval > 0 {
		go reconcileEvery(ctx, services.NewReconciler(store, m), cfg.ReconcileInterval)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("Starting server on :%s", cfg.AppPort)
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		return fmt.Errorf("fiber.Listen error: %w", err)
	}
	return nil
}

func reconcileEvery(ctx context.Context, r *services.Reconciler, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Run(ctx); err != nil {
				log.Printf("[Reconcile] run failed: %v", err)
			}
		}
	}
}
