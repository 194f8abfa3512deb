// gojlink
// Copyright (c) 2024 The gojlink Authors.
// SPDX-License-Identifier: MIT

package main

import "github.com/durufle/gojlink/cmd/swdctl/cmd"

func main() {
	cmd.Execute()
}
