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
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BeringAI/BeringRaaS/cmd/beringctl/config"
)

var healthJSONOutput bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check reasoner service health",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(config.Global)
		health, err := client.health(context.Background())
		if err != nil {
			return err
		}

		if healthJSONOutput {
			return outputJSON(health)
		}
		fmt.Printf("Service: %s\nMonitor: %s\nUptime:  %.0fs\n",
			health.Service, health.Monitor, health.UptimeSeconds)
		return nil
	},
}

func init() {
	healthCmd.Flags().BoolVar(&healthJSONOutput, "json", false,
		"Output as JSON for scripting")
}
