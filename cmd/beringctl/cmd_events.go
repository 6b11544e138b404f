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
	"time"

	"github.com/spf13/cobra"

	"github.com/BeringAI/BeringRaaS/cmd/beringctl/config"
)

var (
	eventsLimit      int
	eventsOffset     int
	eventsModel      string
	eventsJSONOutput bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect recorded reasoning events",
}

var eventsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded reasoning events, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(config.Global)
		list, err := client.listEvents(context.Background(), eventsLimit, eventsOffset, eventsModel)
		if err != nil {
			return err
		}

		if eventsJSONOutput {
			return outputJSON(list)
		}
		for _, event := range list.Events {
			blocked := ""
			if event.Blocked {
				blocked = " [blocked]"
			}
			fmt.Printf("%s  %s  %-7s  f=%.2f c=%.2f  risk=%s%s  %s\n",
				event.EventID,
				event.Timestamp.Format(time.RFC3339),
				event.Mode,
				event.FaithfulnessScore,
				event.CoherenceScore,
				riskLabel(event.RiskFlag),
				blocked,
				event.Question)
		}
		if list.HasMore {
			fmt.Println("... more events available, raise --limit or --offset")
		}
		return nil
	},
}

var eventsGetCmd = &cobra.Command{
	Use:   "get <event-id>",
	Short: "Fetch a single reasoning event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newAPIClient(config.Global)
		event, err := client.getEvent(context.Background(), args[0])
		if err != nil {
			return err
		}
		return outputJSON(event)
	},
}

func init() {
	eventsListCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Maximum events to return")
	eventsListCmd.Flags().IntVar(&eventsOffset, "offset", 0, "Events to skip")
	eventsListCmd.Flags().StringVar(&eventsModel, "model", "", "Filter by model name")
	eventsListCmd.Flags().BoolVar(&eventsJSONOutput, "json", false, "Output as JSON")

	eventsCmd.AddCommand(eventsListCmd)
	eventsCmd.AddCommand(eventsGetCmd)
}
