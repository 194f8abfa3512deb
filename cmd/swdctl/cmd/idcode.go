// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/durufle/gojlink/swd"
)

var idcodeCmd = &cobra.Command{
	Use:   "idcode",
	Short: "Read the target's DPIDR register",
	Long: `Read debug port register 0, the identification register, and decode
its fields.`,
	RunE: runIDCode,
}

func init() {
	rootCmd.AddCommand(idcodeCmd)
}

func runIDCode(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	probe, done, err := openProbe(cfg)
	if err != nil {
		return err
	}
	defer done()

	resp, err := swd.NewReadRequest(0, false).Send(probe)
	if err != nil {
		return err
	}
	if resp.Invalid() {
		return fmt.Errorf("parity mismatch reading DPIDR, data was 0x%08X", resp.Data)
	}
	if err := checkStatus(resp); err != nil {
		return err
	}

	id := resp.Data
	fmt.Printf("DPIDR:    0x%08X\n", id)
	fmt.Printf("Designer: 0x%03X\n", id>>1&0x7FF)
	fmt.Printf("Version:  %d\n", id>>12&0xF)
	fmt.Printf("Revision: %d\n", id>>28&0xF)
	return nil
}
