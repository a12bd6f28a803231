package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/MikeMC777/tienda-ecom/internal/config"
	"github.com/MikeMC777/tienda-ecom/internal/db"
	"github.com/MikeMC777/tienda-ecom/internal/logx"
	"github.com/MikeMC777/tienda-ecom/internal/order"
)

func main() {
	app := &cli.App{
		Name:           "order-service",
		Usage:          "places orders and serves order history",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:  "migrate",
				Usage: "apply or roll back the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "apply all migrations", Action: migrateAction(db.Up)},
					{Name: "down", Usage: "roll back all migrations", Action: migrateAction(db.Down)},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := logx.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func migrateAction(dir db.Direction) cli.ActionFunc {
	return func(*cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := db.Migrate(cfg.PostgresDSN, dir); err != nil {
			return err
		}
		log.WithField("direction", dir).Info("migrations applied")
		return nil
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PostgresDSN, db.Up); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.PostgresDSN, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer pool.Close()

	txOpts, err := cfg.PlacementTxOptions()
	if err != nil {
		return err
	}
	cur, err := cfg.CurrencyUnit()
	if err != nil {
		return err
	}

	svc := order.NewService(
		order.NewTxManager(pool, txOpts),
		order.NewPGRepo(pool),
		order.Options{
			MaxAttempts: cfg.PlacementMaxAttempts,
			Backoff:     cfg.PlacementRetryBackoff,
			Currency:    cur,
		},
	)

	srv := &http.Server{
		Addr:              cfg.OrderSvcAddr,
		Handler:           newRouter(svc, pool.Ping),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("order-service listening on %s", cfg.OrderSvcAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("srv.ListenAndServe: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("order-service shutting down")
	return srv.Shutdown(shutdownCtx)
}
