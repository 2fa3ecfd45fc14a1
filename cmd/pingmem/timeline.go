package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/aman-cerp/pingmem/pkg/pingmem"
)

func runTimeline(args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	projectDir := fs.String("dir", "", "project directory used to load config (defaults to cwd)")
	projectID := fs.String("project", "", "projectId to query (required)")
	filePath := fs.String("file", "", "limit the timeline to commits touching this file")
	limit := fs.Int("limit", 50, "maximum number of entries")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *projectID == "" {
		return fmt.Errorf("timeline: -project is required")
	}

	dir, err := resolveProjectDir(*projectDir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	entries, err := facade.QueryTimeline(ctx, pingmem.TimelineOptions{
		ProjectID: *projectID,
		FilePath:  *filePath,
		Limit:     *limit,
	})
	if err != nil {
		return fmt.Errorf("timeline: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("no commits")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  %s\n", e.AuthorDate.Format("2006-01-02"), shortHash(e.CommitHash), e.Why)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 10 {
		return hash[:10]
	}
	return hash
}
