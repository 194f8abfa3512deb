// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/durufle/gojlink/swd"
)

var writeAP bool

var writeCmd = &cobra.Command{
	Use:   "write <address> <value>",
	Short: "Issue one SWD write transaction",
	Long: `Write one 32-bit word to a DP or AP register. The address is the
register number 0-3, selecting bits A[3:2] of the request.

Examples:
  swdctl write 2 0x50000F00 --ap
  swdctl write 1 0x1E`,
	Args: cobra.ExactArgs(2),
	RunE: runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().BoolVar(&writeAP, "ap", false, "address an access port register")
}

func runWrite(_ *cobra.Command, args []string) error {
	addr, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil || addr > 3 {
		return fmt.Errorf("bad register address %q, want 0-3", args[0])
	}
	value, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return fmt.Errorf("bad value %q: %w", args[1], err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	probe, done, err := openProbe(cfg)
	if err != nil {
		return err
	}
	defer done()

	resp, err := swd.NewWriteRequest(uint8(addr), writeAP, uint32(value)).Send(probe)
	if err != nil {
		return err
	}
	return checkStatus(resp)
}
