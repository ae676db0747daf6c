package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "xstream",
		Short: "Collaborative narrative synthesis service",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(initCmd())
	root.AddCommand(synthesizeCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
