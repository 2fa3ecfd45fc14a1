package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/aman-cerp/pingmem/pkg/pingmem"
)

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	projectDir := fs.String("dir", "", "project directory used to load config (defaults to cwd)")
	projectID := fs.String("project", "", "filter results to this projectId")
	filePath := fs.String("file", "", "filter results to this filePath")
	chunkType := fs.String("type", "", "filter results to this chunk type")
	limit := fs.Int("limit", 10, "maximum number of results")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("search: a query is required")
	}
	query := strings.Join(fs.Args(), " ")

	dir, err := resolveProjectDir(*projectDir)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	hits, err := facade.SearchCode(ctx, query, pingmem.SearchFilters{
		ProjectID: *projectID,
		FilePath:  *filePath,
		Type:      *chunkType,
		Limit:     *limit,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if len(hits) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for i, h := range hits {
		fmt.Printf("%d. [%.4f] %s:%s (%s)\n", i+1, h.Score, h.ProjectID, h.FilePath, h.Type)
		fmt.Printf("   %s\n", truncate(h.Content, 160))
	}
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
