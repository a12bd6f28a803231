package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/tienda-ecom/internal/config"
	"github.com/MikeMC777/tienda-ecom/internal/db"
	"github.com/MikeMC777/tienda-ecom/internal/logx"
	"github.com/MikeMC777/tienda-ecom/internal/user"
)

func main() {
	app := &cli.App{
		Name:           "user-service",
		Usage:          "user directory over gRPC",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{Name: "serve", Usage: "run the gRPC server", Action: serve},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logx.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
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

	lis, err := net.Listen("tcp", cfg.UserSvcAddr)
	if err != nil {
		return fmt.Errorf("net.Listen: %w", err)
	}

	srv := grpc.NewServer()
	user.RegisterUserServiceServer(srv, user.NewService(user.NewPGRepo(pool)))

	hs := health.NewServer()
	hs.SetServingStatus(user.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("user-service listening on %s", cfg.UserSvcAddr)
		if err := srv.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("srv.Serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("user-service shutting down")
	hs.Shutdown()
	srv.GracefulStop()
	return nil
}
