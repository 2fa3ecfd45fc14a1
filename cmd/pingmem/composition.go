package main

import (
	"fmt"
	"os"

	"github.com/aman-cerp/pingmem/internal/config"
	"github.com/aman-cerp/pingmem/internal/embedding"
	"github.com/aman-cerp/pingmem/internal/graphsink"
	"github.com/aman-cerp/pingmem/internal/ingest"
	"github.com/aman-cerp/pingmem/internal/scanner"
	"github.com/aman-cerp/pingmem/internal/vectorsink"
	"github.com/aman-cerp/pingmem/pkg/pingmem"
)

// loadConfig builds a Config for dir, applying the same
// defaults/file/environment precedence internal/config.Load already
// implements, then layers EnvironmentLoader's overrides on top so a
// container-injected NEO4J_URI/QDRANT_URL always wins regardless of
// what's on disk.
func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}

	overrides, err := (config.EnvironmentLoader{}).Load()
	if err != nil {
		return nil, err
	}
	overrides.Apply(cfg)

	return cfg, nil
}

// buildFacade composes a pingmem.Facade from cfg. The caller owns the
// returned facade and must Close it.
func buildFacade(cfg *config.Config) (*pingmem.Facade, error) {
	orchestrator, err := ingest.NewOrchestrator(scanner.ScanOptions{
		IgnoreDirs:         cfg.Scanner.IgnoreDirs,
		ExtensionAllowlist: cfg.Scanner.ExtensionAllowlist,
		RespectGitignore:   true,
		MaxFileSize:        scanner.DefaultMaxFileSize,
	})
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	graph, err := graphsink.NewSink(graphsink.Config{
		URI:         cfg.Graph.URI,
		Username:    cfg.Graph.Username,
		Password:    cfg.Graph.Password,
		Database:    cfg.Graph.Database,
		MaxPoolSize: cfg.Graph.MaxPoolSize,
	})
	if err != nil {
		orchestrator.Close()
		return nil, fmt.Errorf("build graph sink: %w", err)
	}

	vector, err := vectorsink.NewSink(vectorsink.Config{
		URL:              cfg.Vector.URL,
		CollectionName:   cfg.Vector.CollectionName,
		APIKey:           cfg.Vector.APIKey,
		VectorDimensions: cfg.Vector.VectorDimensions,
	}, embedding.NewHashVectorizer(cfg.Vector.VectorDimensions))
	if err != nil {
		orchestrator.Close()
		return nil, fmt.Errorf("build vector sink: %w", err)
	}

	return pingmem.NewFacade(orchestrator, graph, vector), nil
}

// resolveProjectDir defaults to the current working directory when
// dir is empty, matching how every subcommand treats a missing
// positional project-directory argument.
func resolveProjectDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return cwd, nil
}
