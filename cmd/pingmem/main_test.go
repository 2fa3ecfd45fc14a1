package main

import "testing"

func TestRun_NoArgsReturnsError(t *testing.T) {
	if err := run(nil); err == nil {
		t.Fatal("expected an error when no subcommand is given")
	}
}

func TestRun_UnknownSubcommandReturnsError(t *testing.T) {
	if err := run([]string{"bogus"}); err == nil {
		t.Fatal("expected an error for an unknown subcommand")
	}
}

func TestRun_HelpReturnsNil(t *testing.T) {
	if err := run([]string{"help"}); err != nil {
		t.Fatalf("help should never error, got %v", err)
	}
}

func TestRun_VersionReturnsNil(t *testing.T) {
	if err := run([]string{"version"}); err != nil {
		t.Fatalf("version should never error, got %v", err)
	}
}
