package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aman-cerp/pingmem/configs"
	"github.com/aman-cerp/pingmem/internal/config"
)

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	user := fs.Bool("user", false, "write the machine-level config instead of the project-level one")
	force := fs.Bool("force", false, "overwrite an existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *user {
		return writeTemplate(config.GetUserConfigPath(), configs.UserConfigTemplate, *force)
	}

	dir, err := resolveProjectDir(fs.Arg(0))
	if err != nil {
		return err
	}
	return writeTemplate(filepath.Join(dir, ".ping-mem.yaml"), configs.ProjectConfigTemplate, *force)
}

func writeTemplate(path, template string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("init: %s already exists (pass -force to overwrite)", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if err := os.WriteFile(path, []byte(template), 0o644); err != nil {
		return fmt.Errorf("init: %w", err)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
