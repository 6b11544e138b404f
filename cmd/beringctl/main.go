// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command beringctl is the command-line client for the BeringRaaS
// reasoning evaluation service.
//
//	beringctl reason "What is the capital of France?"
//	beringctl reason -m perturb "Why is the sky blue?"
//	beringctl health
//	beringctl events list --limit 20
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/BeringAI/BeringRaaS/cmd/beringctl/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return config.Load()
	}
}
