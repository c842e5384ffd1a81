// Command formgrid-cli runs the interactive terminal console over the backend
// described by a console file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-formgrid/internal/logging"
	"github.com/goliatone/go-formgrid/pkg/config"
	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/renderers/tui"
)

func mainImpl() error {
	configPath := flag.String("config", "configs/demo.yaml", "console file (JSON or YAML)")
	entity := flag.String("entity", "", "open this entity directly instead of the dashboard")
	level := flag.String("log-level", "warn", "log level: debug, info, warn or error")
	flag.Parse()
	if flag.NArg() != 0 {
		return fmt.Errorf("unexpected arguments: %v", flag.Args())
	}

	logger, _, err := logging.Setup(*level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	api, err := cfg.Client(logger)
	if err != nil {
		return err
	}
	screens, err := cfg.Screens(ctx, api, logger)
	if err != nil {
		return err
	}

	term := tui.New(tui.WithLogger(logger), tui.WithFeed(cfg.ActivityFeed(api, logger)))
	if *entity == "" {
		return term.Run(ctx, screens...)
	}
	scr, err := pick(screens, *entity)
	if err != nil {
		return err
	}
	return term.RunScreen(ctx, scr)
}

func pick(screens []*console.Screen, entity string) (*console.Screen, error) {
	for _, scr := range screens {
		if scr.Entity() == entity {
			return scr, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", config.ErrUnknownEntity, entity)
}

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, tui.ErrAborted) && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "formgrid-cli: %s\n", err)
		os.Exit(1)
	}
}
