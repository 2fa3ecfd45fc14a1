package main

import (
	"context"
	"flag"
	"fmt"
)

func runVerify(args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	dir, err := resolveProjectDir(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(dir)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	facade, err := buildFacade(cfg)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	ctx := context.Background()
	defer func() { _ = facade.Close(ctx) }()

	result, err := facade.VerifyProject(ctx, dir)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	fmt.Printf("projectId:        %s\n", result.ProjectID)
	fmt.Printf("valid:            %t\n", result.Valid)
	fmt.Printf("manifestTreeHash: %s\n", result.ManifestTreeHash)
	fmt.Printf("currentTreeHash:  %s\n", result.CurrentTreeHash)
	fmt.Printf("message:          %s\n", result.Message)

	if !result.Valid {
		return fmt.Errorf("verify: tree has drifted from the stored manifest")
	}
	return nil
}
