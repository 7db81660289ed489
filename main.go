package main

import (
	"os"

	"github.com/conneroisu/quire/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
