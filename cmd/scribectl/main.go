package main

import (
	"fmt"
	"os"

	"github.com/oremus-labs/scribe-bridge/internal/scribecli"
)

func main() {
	if err := scribecli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
