package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/aman-cerp/pingmem/internal/graphsink"
)

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	projectDir := fs.String("dir", "", "project directory used to load config (defaults to cwd)")
	projectID := fs.String("project", "", "filter to a single projectId")
	limit := fs.Int("limit", 100, "maximum number of projects")
	sortBy := fs.String("sort", "lastIngestedAt", "sort field: lastIngestedAt or projectId")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveProjectDir(*projectDir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	summaries, err := facade.ListProjects(ctx, graphsink.ListOptions{
		ProjectID: *projectID,
		Limit:     *limit,
		SortBy:    *sortBy,
	})
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("no projects")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %s  %s\n", s.ProjectID, s.LastIngestedAt.Format("2006-01-02T15:04:05Z07:00"), s.RootPath)
	}
	return nil
}
