package main

import (
	"os"

	"github.com/openfga/xstream/cmd"
	"github.com/openfga/xstream/cmd/run"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	runCmd := run.NewRunCommand()
	rootCmd.AddCommand(runCmd)

	infoCmd := cmd.NewInfoCommand()
	rootCmd.AddCommand(infoCmd)

	versionCmd := cmd.NewVersionCommand()
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
