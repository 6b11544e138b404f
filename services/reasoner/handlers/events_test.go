// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
	"github.com/BeringAI/BeringRaaS/services/reasoner/eventlog"
)

func newEventsRouter(store *eventlog.Store) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/api/v1/events", ListEvents(store))
	engine.GET("/api/v1/events/:id", GetEvent(store))
	return engine
}

func seedEvents(t *testing.T, store *eventlog.Store, n int) []datatypes.ReasoningEvent {
	t.Helper()
	events := make([]datatypes.ReasoningEvent, 0, n)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		event := datatypes.ReasoningEvent{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Question:  "q",
			Model:     "mock",
			Mode:      "live",
		}
		require.NoError(t, store.Record(&event))
		events = append(events, event)
	}
	return events
}

func getPath(t *testing.T, engine *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	engine.ServeHTTP(w, req)
	return w
}

func TestListEvents(t *testing.T) {
	store, err := eventlog.Open(eventlog.InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()
	seedEvents(t, store, 3)

	engine := newEventsRouter(store)
	w := getPath(t, engine, "/api/v1/events?limit=2")

	require.Equal(t, http.StatusOK, w.Code)
	var list datatypes.ReasoningEventList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Events, 2)
	assert.True(t, list.HasMore)
}

func TestGetEvent(t *testing.T) {
	store, err := eventlog.Open(eventlog.InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()
	events := seedEvents(t, store, 1)

	engine := newEventsRouter(store)
	w := getPath(t, engine, "/api/v1/events/"+events[0].EventID)

	require.Equal(t, http.StatusOK, w.Code)
	var event datatypes.ReasoningEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, events[0].EventID, event.EventID)
}

func TestGetEvent_NotFound(t *testing.T) {
	store, err := eventlog.Open(eventlog.InMemoryConfig())
	require.NoError(t, err)
	defer store.Close()

	engine := newEventsRouter(store)
	w := getPath(t, engine, "/api/v1/events/missing")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvents_DisabledStore(t *testing.T) {
	engine := newEventsRouter(nil)

	assert.Equal(t, http.StatusServiceUnavailable, getPath(t, engine, "/api/v1/events").Code)
	assert.Equal(t, http.StatusServiceUnavailable, getPath(t, engine, "/api/v1/events/x").Code)
}

func TestHandleHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/api/v1/health", HandleHealth(time.Now().Add(-2*time.Second)))

	w := getPath(t, engine, "/api/v1/health")

	require.Equal(t, http.StatusOK, w.Code)
	var health datatypes.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Service)
	assert.Equal(t, "active", health.Monitor)
	assert.GreaterOrEqual(t, health.UptimeSeconds, 2.0)
}
