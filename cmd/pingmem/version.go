package main

import (
	"flag"
	"fmt"

	"github.com/aman-cerp/pingmem/pkg/version"
)

func runVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Println(version.String())
	return nil
}
