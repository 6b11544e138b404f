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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/BeringAI/BeringRaaS/cmd/beringctl/config"
	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
)

// apiClient talks to a running reasoner service.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func newAPIClient(cfg config.BeringConfig) *apiClient {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := cfg.Server.BaseURL
	if serverOverride != "" {
		baseURL = serverOverride
	}
	return &apiClient{
		baseURL: baseURL,
		apiKey:  cfg.Server.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiError carries the server's structured error body.
type apiError struct {
	StatusCode int
	Message    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var body datatypes.ErrorResponse
		if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
			body.Message = string(data)
		}
		return &apiError{StatusCode: resp.StatusCode, Message: body.Message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *apiClient) reason(ctx context.Context, request datatypes.ReasoningRequest, mode string) (*datatypes.ReasoningResponse, error) {
	path := "/api/v1/reason"
	if mode != "" {
		path += "?mode=" + url.QueryEscape(mode)
	}
	var resp datatypes.ReasoningResponse
	if err := c.do(ctx, http.MethodPost, path, request, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) health(ctx context.Context) (datatypes.HealthResponse, error) {
	var resp datatypes.HealthResponse
	err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &resp)
	return resp, err
}

func (c *apiClient) listEvents(ctx context.Context, limit, offset int, model string) (datatypes.ReasoningEventList, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	if model != "" {
		query.Set("model", model)
	}
	path := "/api/v1/events"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp datatypes.ReasoningEventList
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp, err
}

func (c *apiClient) getEvent(ctx context.Context, id string) (datatypes.ReasoningEvent, error) {
	var resp datatypes.ReasoningEvent
	err := c.do(ctx, http.MethodGet, "/api/v1/events/"+url.PathEscape(id), nil, &resp)
	return resp, err
}
