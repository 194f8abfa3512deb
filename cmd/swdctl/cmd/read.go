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

var readAP bool

var readCmd = &cobra.Command{
	Use:   "read <address>",
	Short: "Issue one SWD read transaction",
	Long: `Read one 32-bit word from a DP or AP register. The address is the
register number 0-3, selecting bits A[3:2] of the request.

Examples:
  swdctl read 0                  # DPIDR
  swdctl read 3 --ap             # AP register at offset 0xC`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)
	readCmd.Flags().BoolVar(&readAP, "ap", false, "address an access port register")
}

func runRead(_ *cobra.Command, args []string) error {
	addr, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil || addr > 3 {
		return fmt.Errorf("bad register address %q, want 0-3", args[0])
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

	resp, err := swd.NewReadRequest(uint8(addr), readAP).Send(probe)
	if err != nil {
		return err
	}
	if resp.Invalid() {
		return fmt.Errorf("parity mismatch on read back, data was 0x%08X", resp.Data)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	fmt.Printf("0x%08X\n", resp.Data)
	return nil
}
