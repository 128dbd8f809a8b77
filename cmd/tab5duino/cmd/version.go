package cmd

import (
	"fmt"

	"github.com/go-tab5/tab5duino/pkg/framework"
)

func init() {
	RegisterCommand(&Command{
		Name:  "version",
		Short: "Print CLI and framework versions",
		Long:  `Print the CLI version and the framework version it targets.`,
		Usage: "tab5duino version",
		Run:   runVersion,
	})
}

func runVersion(args []string) error {
	fmt.Printf("tab5duino CLI %s (built %s)\n", Version, BuildTime)
	fmt.Printf("framework     %s\n", framework.Version)
	return nil
}
