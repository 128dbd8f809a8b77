package main

import (
	"fmt"
	"os"

	"github.com/go-tab5/tab5duino/cmd/tab5duino/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
