// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	gojlink "github.com/durufle/gojlink"
)

var (
	// Global flags
	verbose       bool
	configPath    string
	transportName string
)

var rootCmd = &cobra.Command{
	Use:   "swdctl",
	Short: "SWD transaction tool",
	Long: `swdctl issues single Serial Wire Debug transactions against a target
through a configurable probe backend.

Examples:
  swdctl idcode --transport sim                  # Read DPIDR from the simulator
  swdctl read 0 --transport cmsisdap             # DP read of address 0
  swdctl write 2 0x50000F00 --ap                 # AP write of address 2`,
	Version: "0.9.0",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			gojlink.SetLogLevel(logrus.DebugLevel)
		}
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	rootCmd.PersistentFlags().StringVarP(&transportName, "transport", "t", "",
		"probe backend: sim, cmsisdap, bitbang or rbb")
}
