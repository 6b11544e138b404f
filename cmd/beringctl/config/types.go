// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

// BeringConfig is the CLI configuration persisted at ~/.bering/bering.yaml.
type BeringConfig struct {
	// Server describes how to reach the reasoner service.
	Server ServerConfig `yaml:"server"`

	// Defaults for reasoning requests.
	Defaults RequestDefaults `yaml:"defaults"`
}

type ServerConfig struct {
	BaseURL        string `yaml:"base_url"`        // e.g. http://localhost:12310
	APIKey         string `yaml:"api_key"`         // empty when auth is disabled
	TimeoutSeconds int    `yaml:"timeout_seconds"` // e.g. 60
}

type RequestDefaults struct {
	// Mode is the default evaluation mode: live, dryrun or perturb.
	Mode string `yaml:"mode"`
}

// DefaultConfig targets a local mock-backed server.
func DefaultConfig() BeringConfig {
	return BeringConfig{
		Server: ServerConfig{
			BaseURL:        "http://localhost:12310",
			TimeoutSeconds: 60,
		},
		Defaults: RequestDefaults{
			Mode: "live",
		},
	}
}
