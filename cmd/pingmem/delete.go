package main

import (
	"context"
	"flag"
	"fmt"
)

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	projectDir := fs.String("dir", "", "project directory used to load config (defaults to cwd)")
	projectID := fs.String("project", "", "projectId to delete (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectID == "" {
		return fmt.Errorf("delete: -project is required")
	}

	dir, err := resolveProjectDir(*projectDir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	if err := facade.DeleteProject(ctx, *projectID); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	fmt.Printf("deleted project %s\n", *projectID)
	return nil
}
