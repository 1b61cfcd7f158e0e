// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Heliograph - VE.Direct Serial Protocol Analyzer
//
// A CLI tool for monitoring and decoding VE.Direct telemetry frames
// in human-readable format.

package main

import (
	"os"

	"github.com/Thermoquad/heliograph/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
