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
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess = 0 // Operation completed successfully
	CLIExitBlocked = 1 // Evaluation was blocked by the risk gate
	CLIExitError   = 2 // Operation failed
)

// ANSI colors, enabled only on a real terminal.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// colorize wraps s in an ANSI color when stdout is a TTY.
func colorize(color, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return s
	}
	return color + s + colorReset
}

// riskLabel renders a risk flag with color.
func riskLabel(flagged bool) string {
	if flagged {
		return colorize(colorRed, "FLAGGED")
	}
	return colorize(colorGreen, "clear")
}

// scoreLabel colors a score against a floor threshold.
func scoreLabel(score, floor float64) string {
	text := fmt.Sprintf("%.3f", score)
	if score < floor {
		return colorize(colorYellow, text)
	}
	return text
}

// outputJSON writes structured data as indented JSON to stdout.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// outputError writes an error to stderr.
func outputError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}
