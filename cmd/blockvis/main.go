package main

import (
	"os"

	"github.com/solatis/blockvis/cmd/blockvis/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
