// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "beringctl",
	Short: "Client for the BeringRaaS reasoning evaluation service",
	Long: `beringctl submits questions to a running reasoner, inspects recorded
reasoning events, and checks service health.

The server address and API key come from ~/.bering/bering.yaml, created
with defaults on first run.`,
	SilenceUsage: true,
}

// serverOverride replaces the configured server base URL for one invocation.
var serverOverride string

func init() {
	rootCmd.PersistentFlags().StringVar(&serverOverride, "server", "",
		"Server base URL, overrides the configured value")
	rootCmd.AddCommand(reasonCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(eventsCmd)
}
