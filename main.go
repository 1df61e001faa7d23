package main

import (
	"os"

	"github.com/numtide/fmtrc/cmd"
)

func main() {
	root, _ := cmd.NewRoot()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
