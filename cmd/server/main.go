package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "daily-activity",
		Short:   "Daily Activity task tracker",
		Version: Version,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "path to the YAML configuration file")

	rootCmd.AddCommand(serverCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
