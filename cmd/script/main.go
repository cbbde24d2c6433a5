package main

import (
	"os"
	"portfoliobacktest/cmd"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "backtest fixed-weight portfolios against benchmarks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", cmd.DefaultConfigPath, "path to the yaml config")

	loadDeps := func() (*cmd.Dependencies, error) {
		return cmd.InitializeDependencies(configPath)
	}
	root.AddCommand(
		newSimulateCmd(loadDeps),
		newGenerateCmd(loadDeps),
		newFetchCmd(loadDeps),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
