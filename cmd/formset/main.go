package main

import (
	"os"

	"github.com/goliatone/go-formset/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
