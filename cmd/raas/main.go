// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command raas starts the BeringRaaS reasoning evaluation server.
//
// It reads configuration from environment variables and runs until the
// server stops.
//
// # Environment Variables
//
//   - RAAS_PORT: HTTP server port (default: 12310)
//   - MODEL_BACKEND: model client - mock, openai, gemini (default: mock)
//   - FAITHFULNESS_THRESHOLD: risk gate faithfulness floor (default: 0.6)
//   - COHERENCE_THRESHOLD: risk gate coherence floor (default: 0.5)
//   - OBFUSCATION_THRESHOLD: risk gate obfuscation ceiling (default: 0.7)
//   - N_CANDIDATES: candidate traces per request (default: 3)
//   - PERTURB_TRIALS: step-removal trials in perturb mode (default: 5)
//   - RAAS_API_KEY: X-API-Key value; empty disables auth
//   - EVENTLOG_PATH: BadgerDB directory for the event log; empty disables it
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (optional)
//
// # Usage
//
//	go build -o raas ./cmd/raas
//	./raas
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/BeringAI/BeringRaaS/services/reasoner"
	"github.com/BeringAI/BeringRaaS/services/reasoner/monitor"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := reasoner.Config{
		Port:         getEnvInt("RAAS_PORT", 12310),
		ModelBackend: getEnvString("MODEL_BACKEND", "mock"),
		Thresholds: monitor.Thresholds{
			Faithfulness: getEnvFloat("FAITHFULNESS_THRESHOLD", 0.6),
			Coherence:    getEnvFloat("COHERENCE_THRESHOLD", 0.5),
			Obfuscation:  getEnvFloat("OBFUSCATION_THRESHOLD", 0.7),
		},
		NCandidates:   getEnvInt("N_CANDIDATES", 3),
		PerturbTrials: getEnvInt("PERTURB_TRIALS", 5),
		APIKey:        os.Getenv("RAAS_API_KEY"),
		EventLogPath:  os.Getenv("EVENTLOG_PATH"),
		OTelEndpoint:  os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	slog.Info("Starting reasoner",
		"port", cfg.Port,
		"model_backend", cfg.ModelBackend,
		"n_candidates", cfg.NCandidates,
	)

	svc, err := reasoner.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create reasoner: %v", err)
	}

	if err := svc.Run(); err != nil {
		log.Fatalf("Reasoner error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as an int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		slog.Warn("Invalid integer environment variable, using default",
			"key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as a float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		slog.Warn("Invalid float environment variable, using default",
			"key", key, "value", value, "default", defaultValue)
	}
	return defaultValue
}
