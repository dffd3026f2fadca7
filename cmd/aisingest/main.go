package main

import (
	"os"

	"github.com/askiada/go-aisingest/cmd/aisingest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
