package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-cerp/pingmem/internal/watch"
)

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	force := fs.Bool("force-initial", false, "force a reingest before watching starts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveProjectDir(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() { _ = facade.Close(context.Background()) }()

	if _, err := facade.IngestProject(ctx, dir, *force); err != nil {
		return fmt.Errorf("watch: initial ingest: %w", err)
	}

	coordinator, err := watch.NewCoordinator(dir, func(ctx context.Context, projectDir string, forceReingest bool) error {
		_, err := facade.IngestProject(ctx, projectDir, forceReingest)
		return err
	}, nil)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", dir)
	if err := coordinator.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("watch: %w", err)
	}
	return nil
}
