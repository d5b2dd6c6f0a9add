package main

import (
	"os"

	"github.com/abhisek/kgtutor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
