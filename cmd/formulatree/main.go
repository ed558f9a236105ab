package main

import (
	"os"

	"github.com/solatis/formulatree/cmd/formulatree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
