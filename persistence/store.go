// Package persistence provides storage interfaces for Session records: the
// durable conversation log a Session compacts and resumes from, keyed by
// session ID so one store can back many concurrent sessions.
package persistence

import (
	"sync"
	"time"

	"github.com/agentrt/agentrt/chat"
)

// Record represents one conversation turn that can be persisted: a message's
// role, text, and any tool calls/results it carried, plus the bookkeeping a
// Session needs to decide what's still in the live context window.
type Record struct {
	ID           int64           `json:"id"`
	Role         chat.Role       `json:"role"`
	Content      string          `json:"content"`
	ToolCalls    []chat.ToolPart `json:"tool_calls,omitempty"`
	ToolResults  []chat.ToolPart `json:"tool_results,omitempty"`
	Live         bool            `json:"live"`
	Status       string          `json:"status"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Store defines the interface for persisting session records, keyed by
// sessionID so a single store instance can back many concurrent Sessions.
type Store interface {
	// AddRecord inserts a new record for sessionID.
	AddRecord(sessionID string, record Record) (int64, error)

	// GetRecord retrieves a single record by ID.
	GetRecord(sessionID string, id int64) (Record, error)

	// GetAllRecords retrieves all of sessionID's records in chronological order.
	GetAllRecords(sessionID string) ([]Record, error)

	// GetLiveRecords retrieves only sessionID's live records in chronological order.
	GetLiveRecords(sessionID string) ([]Record, error)

	// UpdateRecord updates an existing record by ID.
	UpdateRecord(sessionID string, id int64, record Record) error

	// MarkRecordDead marks a record as not live.
	MarkRecordDead(sessionID string, id int64) error

	// MarkRecordLive marks a record as live.
	MarkRecordLive(sessionID string, id int64) error

	// DeleteRecord removes a record by ID.
	DeleteRecord(sessionID string, id int64) error

	// Clear removes all of sessionID's records.
	Clear(sessionID string) error

	// Close closes the store and releases resources.
	Close() error

	// SaveMetrics persists sessionID's metrics.
	SaveMetrics(sessionID string, metrics SessionMetrics) error

	// LoadMetrics retrieves sessionID's saved metrics.
	LoadMetrics(sessionID string) (SessionMetrics, error)
}

// SessionMetrics represents session statistics that can be persisted.
type SessionMetrics struct {
	CompactionCount     int       `json:"compaction_count"`
	LastCompaction      time.Time `json:"last_compaction"`
	CumulativeTokens    int       `json:"cumulative_tokens"`
	CompactionThreshold float64   `json:"compaction_threshold"`
}

// MemoryStore provides an in-memory, multi-session implementation of Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string][]Record
	nextID  map[string]int64
	metrics map[string]SessionMetrics
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string][]Record),
		nextID:  make(map[string]int64),
		metrics: make(map[string]SessionMetrics),
	}
}

// AddRecord adds a new record to sessionID's log and returns its assigned ID.
func (m *MemoryStore) AddRecord(sessionID string, record Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID[sessionID]++
	record.ID = m.nextID[sessionID]
	m.records[sessionID] = append(m.records[sessionID], record)
	return record.ID, nil
}

// GetRecord retrieves a single record by ID.
func (m *MemoryStore) GetRecord(sessionID string, id int64) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records[sessionID] {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, nil
}

// GetAllRecords returns a copy of all of sessionID's records, both live and dead.
func (m *MemoryStore) GetAllRecords(sessionID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Record, len(m.records[sessionID]))
	copy(result, m.records[sessionID])
	return result, nil
}

// GetLiveRecords returns only sessionID's records still in the active context window.
func (m *MemoryStore) GetLiveRecords(sessionID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var live []Record
	for _, r := range m.records[sessionID] {
		if r.Live {
			live = append(live, r)
		}
	}
	return live, nil
}

// UpdateRecord updates an existing record with the given ID.
func (m *MemoryStore) UpdateRecord(sessionID string, id int64, record Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records[sessionID] {
		if r.ID == id {
			record.ID = id
			m.records[sessionID][i] = record
			return nil
		}
	}
	return nil // not found is not an error for memory store
}

// MarkRecordDead marks a record as dead, removing it from the active context window.
func (m *MemoryStore) MarkRecordDead(sessionID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records[sessionID] {
		if r.ID == id {
			m.records[sessionID][i].Live = false
			return nil
		}
	}
	return nil
}

// MarkRecordLive marks a record as live, adding it back to the active context window.
func (m *MemoryStore) MarkRecordLive(sessionID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records[sessionID] {
		if r.ID == id {
			m.records[sessionID][i].Live = true
			return nil
		}
	}
	return nil
}

// DeleteRecord permanently removes a record with the given ID.
func (m *MemoryStore) DeleteRecord(sessionID string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.records[sessionID]
	for i, r := range recs {
		if r.ID == id {
			m.records[sessionID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return nil
}

// Clear removes all of sessionID's records and resets its ID counter.
func (m *MemoryStore) Clear(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	delete(m.nextID, sessionID)
	delete(m.metrics, sessionID)
	return nil
}

// Close is a no-op for the in-memory store as there are no resources to release.
func (m *MemoryStore) Close() error { return nil }

// SaveMetrics stores sessionID's metrics in memory for later retrieval.
func (m *MemoryStore) SaveMetrics(sessionID string, metrics SessionMetrics) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[sessionID] = metrics
	return nil
}

// LoadMetrics retrieves sessionID's previously saved metrics.
func (m *MemoryStore) LoadMetrics(sessionID string) (SessionMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics[sessionID], nil
}
