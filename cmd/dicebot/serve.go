package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lemonberrylabs/dicebot/pkg/api"
	grpcapi "github.com/lemonberrylabs/dicebot/pkg/api/grpc"
	"github.com/lemonberrylabs/dicebot/pkg/store"
	"github.com/lemonberrylabs/dicebot/web"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP, gRPC and web UI servers",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env DICEBOT_PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env DICEBOT_GRPC_PORT)")
	cmd.Flags().String("host", "", "bind address (default 0.0.0.0, env DICEBOT_HOST)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	reports := store.New(cfg.HistorySize)
	svc := newService(cfg, reports, log)

	server := api.New(svc, reports, log.WithField("component", "http"))
	web.New(svc, reports).Register(server.App())
	grpcServer := grpcapi.New(svc, log.WithField("component", "grpc"))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr())
		return server.Listen(cfg.HTTPAddr())
	})
	g.Go(func() error {
		log.Infof("gRPC server listening on %s", cfg.GRPCAddr())
		return grpcServer.Serve(cfg.GRPCAddr())
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		grpcServer.GracefulStop()
		return server.Shutdown()
	})

	return g.Wait()
}
