package agent

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/agentrt/agentrt/chat"
	"github.com/agentrt/agentrt/persistence"
)

// generateSessionID creates a unique session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("session-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

// Session wraps an Agent with persisted history and automatic context
// compaction: when the live context window approaches capacity (default
// 80%), older records are summarized into a single record to keep the
// conversation going indefinitely.
type Session interface {
	// SessionID returns the unique identifier for this session.
	SessionID() string

	// Send sends msg, running the agent's full tool-calling loop to
	// completion, and returns the final model message.
	Send(ctx context.Context, msg chat.ChatMessage) (chat.ChatMessage, error)

	// History returns the session's live system prompt and message history.
	History() (systemPrompt string, msgs []chat.ChatMessage)

	// LiveRecords returns all records marked as live (in active context window).
	LiveRecords() []Record

	// TotalRecords returns all records (both live and dead).
	TotalRecords() []Record

	// CompactNow manually triggers context compaction.
	CompactNow() error

	// SetCompactionThreshold sets the threshold for automatic compaction (0.0-1.0).
	// A value of 0.8 means compact when 80% of the context window is used.
	// A value of 0.0 means never compact automatically.
	SetCompactionThreshold(float64)

	// Metrics returns usage statistics for the session.
	Metrics() SessionMetrics
}

// RecordStatus represents the status of a record in the conversation.
type RecordStatus string

const (
	RecordStatusPending RecordStatus = "pending"
	RecordStatusSuccess RecordStatus = "success"
	RecordStatusFailed  RecordStatus = "failed"
)

// Record represents a conversation turn in the session history.
type Record struct {
	ID           int64           `json:"id,omitzero"`
	Role         chat.Role       `json:"role"`
	Content      string          `json:"content"`
	ToolCalls    []chat.ToolPart `json:"tool_calls,omitzero"`
	ToolResults  []chat.ToolPart `json:"tool_results,omitzero"`
	Live         bool            `json:"live"`
	Status       RecordStatus    `json:"status"`
	InputTokens  int             `json:"input_tokens"`
	OutputTokens int             `json:"output_tokens"`
	Timestamp    time.Time       `json:"timestamp"`
}

// SessionMetrics provides usage statistics for the session.
type SessionMetrics struct {
	CumulativeTokens int       `json:"cumulative_tokens"`
	LiveTokens       int       `json:"live_tokens"`
	MaxTokens        int       `json:"max_tokens"`
	CompactionCount  int       `json:"compaction_count"`
	LastCompaction   time.Time `json:"last_compaction"`
	RecordsLive      int       `json:"records_live"`
	RecordsTotal     int       `json:"records_total"`
	PercentFull      float64   `json:"percent_full"`
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	sessionID       string
	store           persistence.Store
	initialMessages []chat.ChatMessage
	summarizer      Summarizer
	maxTokens       int
}

// WithRestoreSession restores a session with the given ID, resuming a
// previous conversation by loading its history and state from the
// configured persistence store. If not provided, a new ID is generated.
func WithRestoreSession(id string) SessionOption {
	return func(opts *sessionOptions) { opts.sessionID = id }
}

// WithStore sets a custom persistence store for the session. If not
// provided, an in-memory store is used.
func WithStore(store persistence.Store) SessionOption {
	return func(opts *sessionOptions) { opts.store = store }
}

// WithInitialMessages sets the initial messages for the session.
func WithInitialMessages(msgs ...chat.ChatMessage) SessionOption {
	return func(opts *sessionOptions) { opts.initialMessages = msgs }
}

// WithSummarizer sets a custom summarizer for context compaction. If not
// provided, a default LLM-based summarizer backed by agent is used.
func WithSummarizer(summarizer Summarizer) SessionOption {
	return func(opts *sessionOptions) { opts.summarizer = summarizer }
}

// WithMaxTokens sets the context window size the session compacts against.
// Providers don't currently report this, so the caller supplies it.
func WithMaxTokens(n int) SessionOption {
	return func(opts *sessionOptions) { opts.maxTokens = n }
}

// NewSession creates a new Session driving agent, with the given system
// prompt and options.
func NewSession(agent *Agent, systemPrompt string, opts ...SessionOption) Session {
	var options sessionOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	if options.sessionID == "" {
		options.sessionID = generateSessionID()
	}
	if options.store == nil {
		options.store = persistence.NewMemoryStore()
	}
	if options.summarizer == nil {
		options.summarizer = NewLLMSummarizer(agent)
	}
	if options.maxTokens == 0 {
		options.maxTokens = 128_000
	}

	metrics, _ := options.store.LoadMetrics(options.sessionID)

	existingRecords, _ := options.store.GetAllRecords(options.sessionID)
	hasExistingRecords := len(existingRecords) > 0

	actualSystemPrompt := systemPrompt
	if hasExistingRecords {
		for _, r := range existingRecords {
			if r.Role == chat.RoleSystem {
				actualSystemPrompt = r.Content
				break
			}
		}
	}

	if !hasExistingRecords {
		if systemPrompt != "" {
			options.store.AddRecord(options.sessionID, persistence.Record{
				Role:      chat.RoleSystem,
				Content:   systemPrompt,
				Live:      true,
				Status:    string(RecordStatusSuccess),
				Timestamp: time.Now(),
			})
		}
		for _, msg := range options.initialMessages {
			options.store.AddRecord(options.sessionID, recordFromMessage(msg, true))
		}
	}

	compactionThreshold := metrics.CompactionThreshold
	if !hasExistingRecords && compactionThreshold == 0 {
		compactionThreshold = 0.8
	}

	return &session{
		sessionID:           options.sessionID,
		agent:               agent,
		systemPrompt:        actualSystemPrompt,
		store:               options.store,
		summarizer:          options.summarizer,
		maxTokens:           options.maxTokens,
		compactionThreshold: compactionThreshold,
		compactionCount:     metrics.CompactionCount,
		lastCompaction:      metrics.LastCompaction,
		cumulativeTokens:    metrics.CumulativeTokens,
	}
}

// session is the implementation of Session with pluggable storage.
type session struct {
	sessionID    string
	agent        *Agent
	systemPrompt string
	store        persistence.Store
	summarizer   Summarizer

	mu                  sync.Mutex
	maxTokens           int
	compactionThreshold float64
	compactionCount     int
	lastCompaction      time.Time
	cumulativeTokens    int
}

// recordFromMessage flattens a chat.ChatMessage into a persistence.Record.
func recordFromMessage(msg chat.ChatMessage, live bool) persistence.Record {
	return persistence.Record{
		Role:        msg.Role,
		Content:     msg.Text(),
		ToolCalls:   msg.ToolCalls(),
		ToolResults: msg.ToolResults(),
		Live:        live,
		Status:      string(RecordStatusSuccess),
		Timestamp:   time.Now(),
	}
}

// recordFromPersistence converts a persistence.Record into a session Record.
func recordFromPersistence(r persistence.Record) Record {
	return Record{
		ID:           r.ID,
		Role:         r.Role,
		Content:      r.Content,
		ToolCalls:    append([]chat.ToolPart(nil), r.ToolCalls...),
		ToolResults:  append([]chat.ToolPart(nil), r.ToolResults...),
		Live:         r.Live,
		Status:       RecordStatus(r.Status),
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		Timestamp:    r.Timestamp,
	}
}

// messageFromRecord rebuilds a chat.ChatMessage from a persisted record.
func messageFromRecord(r persistence.Record) chat.ChatMessage {
	var parts []chat.Part
	if r.Content != "" {
		parts = append(parts, chat.TextPart(r.Content))
	}
	for _, tc := range r.ToolCalls {
		tc := tc
		parts = append(parts, chat.Part{Kind: chat.PartTool, Tool: &tc})
	}
	for _, tr := range r.ToolResults {
		tr := tr
		parts = append(parts, chat.Part{Kind: chat.PartTool, Tool: &tr})
	}
	return chat.ChatMessage{Role: r.Role, Parts: parts}
}

// SessionID implements Session.
func (s *session) SessionID() string { return s.sessionID }

// Send implements Session: it builds the full live history, appends msg,
// runs the agent's tool-calling loop to completion, and persists every new
// record the exchange produced.
func (s *session) Send(ctx context.Context, msg chat.ChatMessage) (chat.ChatMessage, error) {
	s.mu.Lock()
	history := s.buildHistoryLocked()
	if s.shouldCompactLocked() {
		if err := s.compactNowLocked(ctx); err != nil {
			s.mu.Unlock()
			return chat.ChatMessage{}, fmt.Errorf("auto-compaction failed: %w", err)
		}
		history = s.buildHistoryLocked()
	}
	s.mu.Unlock()

	history = append(history, msg)
	s.store.AddRecord(s.sessionID, recordFromMessage(msg, true))

	var final chat.ChatMessage
	var usage chat.Usage
	for res, err := range s.agent.sendStreamHistory(ctx, history, nil) {
		if err != nil {
			return chat.ChatMessage{}, err
		}
		usage.Add(res.Usage)
		for _, m := range res.Messages {
			s.store.AddRecord(s.sessionID, recordFromMessage(m, true))
			if m.Role == chat.RoleModel {
				final = m
			}
		}
	}

	s.mu.Lock()
	s.cumulativeTokens += usage.TotalTokens
	s.saveMetricsLocked()
	s.mu.Unlock()

	return final, nil
}

// History implements Session.
func (s *session) History() (systemPrompt string, msgs []chat.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemPrompt, s.buildHistoryLocked()
}

// buildHistoryLocked builds the live message history (mutex must be held).
func (s *session) buildHistoryLocked() []chat.ChatMessage {
	records, _ := s.store.GetLiveRecords(s.sessionID)
	var msgs []chat.ChatMessage
	for _, r := range records {
		if r.Role == chat.RoleSystem {
			continue
		}
		msgs = append(msgs, messageFromRecord(r))
	}
	return msgs
}

// LiveRecords returns all records marked as live (in active context window).
func (s *session) LiveRecords() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.store.GetLiveRecords(s.sessionID)
	var result []Record
	for _, r := range records {
		result = append(result, recordFromPersistence(r))
	}
	return result
}

// TotalRecords returns all records (both live and dead).
func (s *session) TotalRecords() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _ := s.store.GetAllRecords(s.sessionID)
	var result []Record
	for _, r := range records {
		result = append(result, recordFromPersistence(r))
	}
	return result
}

// CompactNow manually triggers context compaction.
func (s *session) CompactNow() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.compactNowLocked(ctx)
}

// compactNowLocked performs compaction with the mutex already held.
func (s *session) compactNowLocked(ctx context.Context) error {
	liveRecords, _ := s.store.GetLiveRecords(s.sessionID)
	if len(liveRecords) < 3 {
		return nil
	}

	recordsToSummarize := liveRecords[:len(liveRecords)-2]

	var agentRecords []Record
	for _, r := range recordsToSummarize {
		agentRecords = append(agentRecords, recordFromPersistence(r))
	}

	summary, err := s.summarizer.Summarize(ctx, agentRecords)
	if err != nil {
		return fmt.Errorf("summarization failed: %w", err)
	}

	for i, r := range liveRecords {
		if i < len(liveRecords)-2 {
			s.store.MarkRecordDead(s.sessionID, r.ID)
		}
	}

	s.store.AddRecord(s.sessionID, persistence.Record{
		Role:      chat.RoleModel,
		Content:   fmt.Sprintf("[Previous conversation summary]\n%s", summary),
		Live:      true,
		Status:    string(RecordStatusSuccess),
		Timestamp: time.Now(),
	})

	s.compactionCount++
	s.lastCompaction = time.Now()
	s.saveMetricsLocked()

	slog.Debug("compacted session", "sessionID", s.sessionID, "recordsSummarized", len(recordsToSummarize))
	return nil
}

// SetCompactionThreshold sets the threshold for automatic compaction (0.0-1.0).
func (s *session) SetCompactionThreshold(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	s.compactionThreshold = threshold
	s.saveMetricsLocked()
}

// Metrics returns usage statistics for the session.
func (s *session) Metrics() SessionMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	liveTokens := s.calculateLiveTokensLocked()
	liveRecords, _ := s.store.GetLiveRecords(s.sessionID)
	allRecords, _ := s.store.GetAllRecords(s.sessionID)

	percentFull := 0.0
	if s.maxTokens > 0 {
		percentFull = float64(liveTokens) / float64(s.maxTokens)
	}

	return SessionMetrics{
		CumulativeTokens: s.cumulativeTokens,
		LiveTokens:       liveTokens,
		MaxTokens:        s.maxTokens,
		CompactionCount:  s.compactionCount,
		LastCompaction:   s.lastCompaction,
		RecordsLive:      len(liveRecords),
		RecordsTotal:     len(allRecords),
		PercentFull:      percentFull,
	}
}

// shouldCompactLocked checks if compaction is needed (mutex must be held).
func (s *session) shouldCompactLocked() bool {
	if s.compactionThreshold == 0.0 {
		return false
	}
	if s.maxTokens <= 0 {
		return false
	}
	liveTokens := s.calculateLiveTokensLocked()
	percentFull := float64(liveTokens) / float64(s.maxTokens)
	return percentFull >= s.compactionThreshold
}

// calculateLiveTokensLocked calculates live token count (mutex must be held).
func (s *session) calculateLiveTokensLocked() int {
	records, _ := s.store.GetLiveRecords(s.sessionID)
	total := 0
	for _, r := range records {
		total += r.InputTokens + r.OutputTokens
	}
	return total
}

// saveMetricsLocked saves metrics to store (mutex must be held).
func (s *session) saveMetricsLocked() {
	s.store.SaveMetrics(s.sessionID, persistence.SessionMetrics{
		CompactionCount:     s.compactionCount,
		LastCompaction:      s.lastCompaction,
		CumulativeTokens:    s.cumulativeTokens,
		CompactionThreshold: s.compactionThreshold,
	})
}
