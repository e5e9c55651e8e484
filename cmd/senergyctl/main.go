// Senergy - Personality-Aware Place Rating Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/senergy

// Command senergyctl trains and inspects the Senergy model offline.
//
//	senergyctl train                   # consult the retrain policy, train if due
//	senergyctl train --force           # train unconditionally
//	senergyctl status                  # show the current model generation
//	senergyctl predict -i request.json # score one /predict request body
//
// It reads the same config.yaml and environment variables as the server.
// The badger model store holds an exclusive lock, so stop the server (or use
// the file backend) before training from the command line.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
