// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeringAI/BeringRaaS/services/reasoner/agent"
	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
)

// stubReasoner returns a scripted outcome and records the mode it saw.
type stubReasoner struct {
	outcome agent.Outcome
	err     error
	gotMode agent.Mode
}

func (s *stubReasoner) Reason(ctx context.Context, request *datatypes.ReasoningRequest, mode agent.Mode) (agent.Outcome, error) {
	s.gotMode = mode
	if request.RequestID == "" {
		request.RequestID = "generated-id"
	}
	return s.outcome, s.err
}

func okOutcome() agent.Outcome {
	return agent.Outcome{
		Kind: agent.OutcomeOK,
		Response: &datatypes.ReasoningResponse{
			Answer:            "Paris",
			ReasoningTrace:    []string{"France is a country", "Its capital is Paris"},
			FaithfulnessScore: 0.8,
			CoherenceScore:    0.9,
			Metadata: datatypes.ResponseMetadata{
				RequestID:   "req-1",
				NCandidates: 3,
				BestScore:   0.84,
				Mode:        "live",
			},
		},
	}
}

func newReasonRouter(r Reasoner, store *eventlog.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.POST("/api/v1/reason", HandleReason(r, store, nil, "mock"))
	return engine
}

func postReason(t *testing.T, engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestHandleReason_OK(t *testing.T) {
	stub := &stubReasoner{outcome: okOutcome()}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason", `{"input":"What is the capital of France?"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agent.ModeLive, stub.gotMode)

	var resp datatypes.ReasoningResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Paris", resp.Answer)
	assert.Len(t, resp.ReasoningTrace, 2)
}

func TestHandleReason_ModeQueryParameter(t *testing.T) {
	stub := &stubReasoner{outcome: okOutcome()}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason?mode=perturb", `{"input":"q"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, agent.ModePerturb, stub.gotMode)
}

func TestHandleReason_UnknownMode(t *testing.T) {
	stub := &stubReasoner{outcome: okOutcome()}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason?mode=yolo", `{"input":"q"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown mode")
}

func TestHandleReason_MissingInput(t *testing.T) {
	stub := &stubReasoner{outcome: okOutcome()}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason", `{"context":{"k":"v"}}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "input is required")
}

func TestHandleReason_MalformedBody(t *testing.T) {
	stub := &stubReasoner{outcome: okOutcome()}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason", `{"input": `)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid request body")
}

func TestHandleReason_OutcomeStatusMapping(t *testing.T) {
	cases := []struct {
		name    string
		outcome agent.Outcome
		status  int
	}{
		{"risk blocked", agent.Outcome{
			Kind:     agent.OutcomeRiskBlocked,
			Response: okOutcome().Response,
			Message:  "response blocked by risk gate: low faithfulness",
		}, http.StatusConflict},
		{"invalid", agent.Outcome{
			Kind:    agent.OutcomeInvalid,
			Message: "input must not be empty",
		}, http.StatusUnprocessableEntity},
		{"generation failed", agent.Outcome{
			Kind:    agent.OutcomeGenerationFailed,
			Message: "model produced no reasoning traces",
		}, http.StatusBadGateway},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newReasonRouter(&stubReasoner{outcome: tc.outcome}, nil)

			w := postReason(t, engine, "/api/v1/reason", `{"input":"q"}`)

			require.Equal(t, tc.status, w.Code)
			var body datatypes.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.status, body.Code)
			assert.Equal(t, tc.outcome.Message, body.Message)
		})
	}
}

func TestHandleReason_InternalError(t *testing.T) {
	stub := &stubReasoner{err: errors.New("evaluation exploded")}
	engine := newReasonRouter(stub, nil)

	w := postReason(t, engine, "/api/v1/reason", `{"input":"q"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal error")
}

func TestHandleReason_RecordsEvent(t *testing.T) {
	store, err := eventlog.Open(eventlog.InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	engine := newReasonRouter(&stubReasoner{outcome: okOutcome()}, store)
	w := postReason(t, engine, "/api/v1/reason", `{"input":"What is the capital of France?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	list, err := store.List(10, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	event := list.Events[0]
	assert.Equal(t, "What is the capital of France?", event.Question)
	assert.Equal(t, "mock", event.Model)
	assert.Equal(t, "live", event.Mode)
	assert.False(t, event.Blocked)
	assert.Equal(t, 0.8, event.FaithfulnessScore)
}

func TestHandleReason_RecordsBlockedEvent(t *testing.T) {
	store, err := eventlog.Open(eventlog.InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	blocked := agent.Outcome{
		Kind:     agent.OutcomeRiskBlocked,
		Response: okOutcome().Response,
		Message:  "response blocked by risk gate: low faithfulness",
	}
	blocked.Response.RiskFlag = true

	engine := newReasonRouter(&stubReasoner{outcome: blocked}, store)
	w := postReason(t, engine, "/api/v1/reason", `{"input":"q"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	list, err := store.List(10, 0, "")
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.True(t, list.Events[0].Blocked)
	assert.True(t, list.Events[0].RiskFlag)
}
