package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/solatis/blockvis/internal/core/api"
	"github.com/solatis/blockvis/internal/core/auth"
	"github.com/solatis/blockvis/internal/core/blocks"
	"github.com/solatis/blockvis/internal/core/config"
	"github.com/solatis/blockvis/internal/core/server"
	"github.com/solatis/blockvis/internal/rules"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC visibility API service",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "gRPC server host")
	serveCmd.Flags().Int("port", 50051, "gRPC server port")
	serveCmd.Flags().Bool("migrate-on-read", true, "persist legacy rule migrations when blocks are read")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfigWithFlags(configFile, map[string]*pflag.Flag{
		config.KeyHost:          cmd.Flags().Lookup("host"),
		config.KeyPort:          cmd.Flags().Lookup("port"),
		config.KeyMigrateOnRead: cmd.Flags().Lookup("migrate-on-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	if len(secrets) == 0 {
		return fmt.Errorf("no HMAC secrets configured (set BV_HMAC_SECRET environment variable)")
	}

	database, queries, err := openDatabase(ctx, true)
	if err != nil {
		return err
	}
	defer database.Close()

	authenticator := auth.NewAuthenticator(secrets, queries, log, server.PublicMethods...)
	store := blocks.NewStore(queries,
		blocks.WithLogger(log),
		blocks.WithMigrateOnRead(cfg.MigrateOnRead),
	)
	engine := rules.NewEngine(rules.WithFeatures(api.EngineFeatures(cfg.Rules)))

	service, err := api.NewService(store, engine, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	grpcServer, err := server.NewGRPCServer(cfg, service, authenticator, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Info("starting blockvis visibility api", "version", Version, "host", cfg.Host, "port", cfg.Port,
		"migrate_on_read", cfg.MigrateOnRead)
	errChan := make(chan error, 1)
	go func() {
		errChan <- grpcServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("shutting down gracefully", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return grpcServer.Shutdown(shutdownCtx)
	}
}
