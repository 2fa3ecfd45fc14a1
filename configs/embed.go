// Package configs embeds the configuration templates pingmem's `init`
// subcommand writes out: a project-level .ping-mem.yaml and a
// machine-level ~/.config/pingmem/config.yaml, matching the
// precedence internal/config.Load implements (defaults, user config,
// project config, environment overrides, in increasing priority).
package configs

import _ "embed"

// UserConfigTemplate is written to internal/config.GetUserConfigPath()
// by `pingmem init --user`. It holds machine-specific settings, most
// importantly credentials that should never be committed alongside a
// project's own .ping-mem.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is written to <projectDir>/.ping-mem.yaml by
// `pingmem init`. It holds project-specific settings: which graph/
// vector collection the project's data lives in, the session cap,
// and the scanner's ignore/allowlist rules.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
