package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/persistence"
	"github.com/agentrt/agentrt/persistence/sqlitestore"
)

func createTestDB(t *testing.T) (string, func()) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	return dbPath, func() {}
}

func populateTestData(t *testing.T, dbPath string) {
	t.Helper()
	store, err := sqlitestore.New(dbPath)
	require.NoError(t, err)
	defer store.Close()

	sessionID := "session-abc123"
	baseTime := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

	_, err = store.AddRecord(sessionID, persistence.Record{
		Role:        chat.RoleUser,
		Content:     "What is 2+2?",
		Live:        true,
		Status:      "success",
		InputTokens: 10,
		Timestamp:   baseTime,
	})
	require.NoError(t, err)

	_, err = store.AddRecord(sessionID, persistence.Record{
		Role:    chat.RoleModel,
		Content: "Let me calculate.",
		ToolCalls: []chat.ToolPart{
			{Kind: chat.ToolPartCall, ID: "call_123", Name: "calculator", Arguments: json.RawMessage(`{"a": 2, "b": 2}`)},
		},
		Live:         true,
		Status:       "success",
		OutputTokens: 20,
		Timestamp:    baseTime.Add(time.Second),
	})
	require.NoError(t, err)

	_, err = store.AddRecord(sessionID, persistence.Record{
		Role: chat.RoleModel,
		ToolResults: []chat.ToolPart{
			{Kind: chat.ToolPartResult, ID: "call_123", Name: "calculator", Result: json.RawMessage(`"4"`)},
		},
		Live:      true,
		Status:    "success",
		Timestamp: baseTime.Add(2 * time.Second),
	})
	require.NoError(t, err)

	_, err = store.AddRecord(sessionID, persistence.Record{
		Role:         chat.RoleModel,
		Content:      "2+2 equals 4.",
		Live:         true,
		Status:       "success",
		OutputTokens: 8,
		Timestamp:    baseTime.Add(3 * time.Second),
	})
	require.NoError(t, err)

	_, err = store.AddRecord("session-xyz789", persistence.Record{
		Role:        chat.RoleUser,
		Content:     "Hello",
		Live:        true,
		Status:      "success",
		InputTokens: 5,
		Timestamp:   baseTime,
	})
	require.NoError(t, err)
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func TestRunList(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()
	populateTestData(t, dbPath)

	output := captureOutput(t, func() {
		err := runList([]string{"--db", dbPath})
		require.NoError(t, err)
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines, "session-abc123")
	assert.Contains(t, lines, "session-xyz789")
}

func TestRunListMissingDB(t *testing.T) {
	err := runList([]string{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--db is required")
}

func TestRunListNonexistentDB(t *testing.T) {
	err := runList([]string{"--db", "/nonexistent/path/db.sqlite"})
	assert.Error(t, err)
}

func TestRunShowJSON(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()
	populateTestData(t, dbPath)

	output := captureOutput(t, func() {
		err := runShow([]string{"--db", dbPath, "--session", "session-abc123", "--format", "json"})
		require.NoError(t, err)
	})

	var records []persistence.Record
	err := json.Unmarshal([]byte(output), &records)
	require.NoError(t, err)

	require.Len(t, records, 4)

	assert.Equal(t, chat.RoleUser, records[0].Role)
	assert.Equal(t, chat.RoleModel, records[1].Role)
	assert.Equal(t, chat.RoleModel, records[2].Role)
	assert.Equal(t, chat.RoleModel, records[3].Role)

	assert.Equal(t, "What is 2+2?", records[0].Content)

	require.Len(t, records[1].ToolCalls, 1)
	assert.Equal(t, "calculator", records[1].ToolCalls[0].Name)
	assert.Equal(t, "call_123", records[1].ToolCalls[0].ID)

	require.Len(t, records[2].ToolResults, 1)
	assert.JSONEq(t, `"4"`, string(records[2].ToolResults[0].Result))
}

func TestRunShowJSONL(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()
	populateTestData(t, dbPath)

	output := captureOutput(t, func() {
		err := runShow([]string{"--db", dbPath, "--session", "session-abc123", "--format", "jsonl"})
		require.NoError(t, err)
	})

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 4)

	for i, line := range lines {
		var record persistence.Record
		err := json.Unmarshal([]byte(line), &record)
		require.NoError(t, err, "line %d should be valid JSON", i)
	}

	var first persistence.Record
	err := json.Unmarshal([]byte(lines[0]), &first)
	require.NoError(t, err)
	assert.Equal(t, chat.RoleUser, first.Role)
}

func TestRunShowMissingArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing db",
			args: []string{"--session", "abc"},
			want: "--db is required",
		},
		{
			name: "missing session",
			args: []string{"--db", "/tmp/test.db"},
			want: "--session is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runShow(tt.args)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunShowInvalidFormat(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()

	err := runShow([]string{"--db", dbPath, "--session", "abc", "--format", "xml"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--format must be 'json' or 'jsonl'")
}

func TestRunShowEmptySession(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()

	store, err := sqlitestore.New(dbPath)
	require.NoError(t, err)
	store.Close()

	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	err = runShow([]string{"--db", dbPath, "--session", "nonexistent"})

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	io.Copy(&buf, r)

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "no records found")
}

func TestRunShowRecordsInChronologicalOrder(t *testing.T) {
	dbPath, cleanup := createTestDB(t)
	defer cleanup()
	populateTestData(t, dbPath)

	output := captureOutput(t, func() {
		err := runShow([]string{"--db", dbPath, "--session", "session-abc123"})
		require.NoError(t, err)
	})

	var records []persistence.Record
	err := json.Unmarshal([]byte(output), &records)
	require.NoError(t, err)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.After(records[i-1].Timestamp) ||
			records[i].Timestamp.Equal(records[i-1].Timestamp),
			"record %d should not be before record %d", i, i-1)
	}
}
