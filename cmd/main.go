package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/yungbote/appversion-backend/internal/app"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "appversion: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("appversion", pflag.ContinueOnError)
	configPath := fs.String("config", "", "Path to the YAML config file (default $"+app.ConfigPathEnv+" or ./config/config.yaml)")
	addr := fs.String("addr", "", "HTTP listen address, overrides http.addr")
	migrateOnly := fs.Bool("migrate-only", false, "Apply the database schema and exit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts := app.Options{ConfigPath: *configPath, Addr: *addr}

	if *migrateOnly {
		return app.Migrate(opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Close(closeCtx)
	}()

	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
