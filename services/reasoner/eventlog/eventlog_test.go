// Copyright (C) 2025 Bering AI (dev@beringai.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package eventlog

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeringAI/BeringRaaS/services/reasoner/datatypes"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func baseTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func recordN(t *testing.T, store *Store, n int, model string) []datatypes.ReasoningEvent {
	t.Helper()
	events := make([]datatypes.ReasoningEvent, 0, n)
	for i := 0; i < n; i++ {
		event := datatypes.ReasoningEvent{
			EventID:   fmt.Sprintf("%s-%d", model, i),
			RequestID: fmt.Sprintf("req-%d", i),
			Timestamp: baseTime().Add(time.Duration(i) * time.Second),
			Question:  fmt.Sprintf("question %d", i),
			Model:     model,
			Mode:      "live",
		}
		require.NoError(t, store.Record(&event))
		events = append(events, event)
	}
	return events
}

func TestRecord_AssignsIDAndTimestamp(t *testing.T) {
	store := newTestStore(t)

	event := datatypes.ReasoningEvent{Question: "q", Model: "mock", Mode: "live"}
	require.NoError(t, store.Record(&event))

	assert.NotEmpty(t, event.EventID)
	assert.False(t, event.Timestamp.IsZero())

	got, err := store.Get(event.EventID)
	require.NoError(t, err)
	assert.Equal(t, event.Question, got.Question)
	assert.Equal(t, event.EventID, got.EventID)
}

func TestGet_UnknownID(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	recordN(t, store, 3, "mock")

	list, err := store.List(10, 0, "")
	require.NoError(t, err)

	require.Len(t, list.Events, 3)
	assert.Equal(t, "mock-2", list.Events[0].EventID)
	assert.Equal(t, "mock-1", list.Events[1].EventID)
	assert.Equal(t, "mock-0", list.Events[2].EventID)
	assert.False(t, list.HasMore)
}

func TestList_LimitOffsetAndHasMore(t *testing.T) {
	store := newTestStore(t)
	recordN(t, store, 5, "mock")

	page, err := store.List(2, 0, "")
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "mock-4", page.Events[0].EventID)
	assert.True(t, page.HasMore)

	page, err = store.List(2, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "mock-2", page.Events[0].EventID)
	assert.True(t, page.HasMore)

	page, err = store.List(2, 4, "")
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "mock-0", page.Events[0].EventID)
	assert.False(t, page.HasMore)
}

func TestList_ModelFilter(t *testing.T) {
	store := newTestStore(t)
	recordN(t, store, 2, "mock")

	other := datatypes.ReasoningEvent{
		EventID:   "openai-0",
		Timestamp: baseTime().Add(time.Hour),
		Question:  "q",
		Model:     "gpt-4o-mini",
		Mode:      "dryrun",
	}
	require.NoError(t, store.Record(&other))

	list, err := store.List(10, 0, "gpt-4o-mini")
	require.NoError(t, err)
	require.Len(t, list.Events, 1)
	assert.Equal(t, "openai-0", list.Events[0].EventID)

	list, err = store.List(10, 0, "mock")
	require.NoError(t, err)
	assert.Len(t, list.Events, 2)
}

func TestList_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	list, err := store.List(0, 0, "")
	require.NoError(t, err)
	assert.Empty(t, list.Events)
	assert.False(t, list.HasMore)
}

func TestOpen_PersistentRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.ErrorContains(t, err, "path is required")
}

func TestOpen_PersistentRoundTrip(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	event := datatypes.ReasoningEvent{Question: "persisted", Model: "mock", Mode: "live"}
	require.NoError(t, store.Record(&event))
	require.NoError(t, store.Close())

	store, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(event.EventID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Question)
}
