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
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BeringAI/BeringRaaS/cmd/beringctl/config"
	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
)

var (
	reasonMode       string   // Evaluation mode: live, dryrun, perturb
	reasonContext    []string // key=value pairs rendered into the prompt
	reasonPolicy     string   // Optional policy constraint
	reasonJSONOutput bool     // Output raw JSON
)

var reasonCmd = &cobra.Command{
	Use:   "reason <question>",
	Short: "Evaluate a question through the reasoning service",
	Long: `Submits a question for chain-of-thought evaluation and prints the
selected answer with its faithfulness and coherence scores.

Examples:
  beringctl reason "What is the capital of France?"
  beringctl reason -m dryrun "Why is the sky blue?"
  beringctl reason -m perturb -c domain=geography "What is the capital of France?"`,
	Args: cobra.ExactArgs(1),
	RunE: runReasonCommand,
}

func init() {
	reasonCmd.Flags().StringVarP(&reasonMode, "mode", "m", "",
		"Evaluation mode: live, dryrun or perturb (default from config)")
	reasonCmd.Flags().StringArrayVarP(&reasonContext, "context", "c", nil,
		"Context key=value pair, repeatable")
	reasonCmd.Flags().StringVar(&reasonPolicy, "policy", "",
		"Free-form policy constraint")
	reasonCmd.Flags().BoolVar(&reasonJSONOutput, "json", false,
		"Output raw JSON for scripting")
}

func runReasonCommand(cmd *cobra.Command, args []string) error {
	mode := reasonMode
	if mode == "" {
		mode = config.Global.Defaults.Mode
	}

	kv, err := parseContextPairs(reasonContext)
	if err != nil {
		return err
	}

	client := newAPIClient(config.Global)
	resp, err := client.reason(context.Background(), datatypes.ReasoningRequest{
		Input:   args[0],
		Context: kv,
		Policy:  reasonPolicy,
	}, mode)
	if err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
			outputError("blocked", err)
			os.Exit(CLIExitBlocked)
		}
		return err
	}

	if reasonJSONOutput {
		return outputJSON(resp)
	}

	printReasoningResponse(resp)
	return nil
}

func printReasoningResponse(resp *datatypes.ReasoningResponse) {
	fmt.Printf("Answer: %s\n\n", resp.Answer)
	fmt.Println("Reasoning trace:")
	for i, step := range resp.ReasoningTrace {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	fmt.Printf("\nFaithfulness: %s  Coherence: %s  Risk: %s\n",
		scoreLabel(resp.FaithfulnessScore, 0.6),
		scoreLabel(resp.CoherenceScore, 0.5),
		riskLabel(resp.RiskFlag))
	fmt.Printf("Monitor: %s\n", resp.MonitorExplanation)
	fmt.Printf("Selected from %d candidates (best score %.3f, mode %s, request %s)\n",
		resp.Metadata.NCandidates, resp.Metadata.BestScore,
		resp.Metadata.Mode, resp.Metadata.RequestID)

	if resp.Perturbation != nil {
		fmt.Printf("\nPerturbation: causal influence %.3f over %d trials\n",
			resp.Perturbation.CausalInfluenceScore, len(resp.Perturbation.Trials))
		for _, trial := range resp.Perturbation.Trials {
			marker := "unchanged"
			if trial.Changed {
				marker = "CHANGED"
			}
			fmt.Printf("  removed %v -> %s\n", trial.RemovedSteps, marker)
		}
	}
}

// parseContextPairs turns repeated key=value flags into a map.
func parseContextPairs(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	kv := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid context pair %q, expected key=value", pair)
		}
		kv[key] = value
	}
	return kv, nil
}
