// Command hcp-admin is the operator console for HomeLift HCP profiles.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/eliasmukasa/homelift-landing/internal/app"
	"github.com/eliasmukasa/homelift-landing/internal/config"
	"github.com/eliasmukasa/homelift-landing/internal/logging"
	"github.com/eliasmukasa/homelift-landing/internal/services"
	"github.com/eliasmukasa/homelift-landing/internal/sessionstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "hcp-admin:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if err := config.LoadDotEnv("."); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.NewText(os.Stderr, logging.ParseLevel(config.GetEnv("LOG_LEVEL", "warn")))

	backend := app.Build(ctx, cfg, services.SystemClock{}, logger)
	defer backend.Close()

	cache, err := sessionstore.New(cfg.SessionFile)
	if err != nil {
		return err
	}

	c := newCLI(backend, cfg, cache, services.SystemClock{}, os.Stdin, os.Stdout, os.Stderr, logger)
	defer c.close()
	return c.run(ctx, args)
}
