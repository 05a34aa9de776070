// Package cmd contains all the commands included in the binary file.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// NewRootCommand enables all children commands to read flags from CLI flags, environment variables prefixed with XSTREAM, or config.yaml (in that order).
func NewRootCommand() *cobra.Command {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("XSTREAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configPaths := []string{"/etc/xstream", "$HOME/.xstream", "."}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	return &cobra.Command{
		Use:   "xstream",
		Short: "An asynchronous offload runtime for ordered device streams",
		Long: `An asynchronous offload runtime for ordered device streams.

xstream enqueues kernels and memory transfers on per-device streams, executes them on a single
background scheduler and synchronizes streams through events.`,
		SilenceUsage: true,
	}
}
