package main

import (
	"context"
	"flag"
	"fmt"
)

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	force := fs.Bool("force", false, "reingest even if the tree hash is unchanged")
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveProjectDir(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	result, err := facade.IngestProject(ctx, dir, *force)
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if result == nil {
		fmt.Println("unchanged, nothing to ingest (pass -force to reingest anyway)")
		return nil
	}

	fmt.Printf("projectId:      %s\n", result.ProjectID)
	fmt.Printf("treeHash:       %s\n", result.TreeHash)
	fmt.Printf("filesIndexed:   %d\n", result.FilesIndexed)
	fmt.Printf("chunksIndexed:  %d\n", result.ChunksIndexed)
	fmt.Printf("commitsIndexed: %d\n", result.CommitsIndexed)
	fmt.Printf("ingestedAt:     %s\n", result.IngestedAt.Format("2006-01-02T15:04:05Z07:00"))
	return nil
}
