package main

import (
	"os"

	"github.com/safetyline/hsg245-stack/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
