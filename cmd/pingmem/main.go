// Command pingmem is a thin CLI composition root over pkg/pingmem's
// IngestionFacade: it wires configuration and the graph/vector sinks,
// then dispatches to one of the facade's operations. It is not a
// transport — there is no server loop here, only a single request per
// invocation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aman-cerp/pingmem/internal/logging"
)

func main() {
	logCfg := logging.DefaultConfig()
	if os.Getenv("PINGMEM_DEBUG") != "" {
		logCfg = logging.DebugConfig()
	}
	logCfg.WriteToStderr = false
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pingmem: failed to set up logging: "+err.Error())
		os.Exit(1)
	}
	defer cleanup()
	slog.SetDefault(logger)

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pingmem: "+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return fmt.Errorf("no subcommand given")
	}

	sub, rest := args[0], args[1:]
	switch sub {
	case "ingest":
		return runIngest(rest)
	case "verify":
		return runVerify(rest)
	case "search":
		return runSearch(rest)
	case "timeline":
		return runTimeline(rest)
	case "list":
		return runList(rest)
	case "delete":
		return runDelete(rest)
	case "watch":
		return runWatch(rest)
	case "init":
		return runInit(rest)
	case "version":
		return runVersion(rest)
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", sub)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `pingmem: project-state memory layer

Usage:
  pingmem <command> [flags]

Commands:
  ingest    scan a project directory and persist it into the graph and vector stores
  verify    check whether a project's current tree hash matches its last ingest
  search    vector-search indexed code chunks
  timeline  show a project's (or file's) commit history with extracted reasons
  list      list known projects
  delete    delete a project and everything derived from it
  watch     watch a project directory and incrementally reingest on change
  init      write a default .ping-mem.yaml (or, with -user, a machine-level config)
  version   print build information`)
}
