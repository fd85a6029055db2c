// Package audit captures compliance-significant actions as events. Keep the
// model transport-agnostic so sinks (Kafka, memory) can fan out.
package audit

import (
	"context"
	"sync"
	"time"
)

// Category classifies audit events by purpose, which drives retention and
// routing downstream.
type Category string

const (
	// CategoryCompliance covers events with legal significance: consent
	// grants, policy activations. Long retention.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers events for debugging and visibility.
	CategoryOperations Category = "operations"
)

// Action names what happened.
type Action string

const (
	ActionConsentGranted  Action = "consent_granted"
	ActionPolicyCreated   Action = "policy_version_created"
	ActionPolicyActivated Action = "policy_version_activated"
	ActionRuleCreated     Action = "targeting_rule_created"
	ActionRuleDeleted     Action = "targeting_rule_deleted"
	ActionAdminLogin      Action = "admin_login"
	ActionConsentExported Action = "consent_records_exported"
)

// Event is emitted from domain services. SubjectIDHash carries a SHA-256 of
// the normalized identity so the trail is traceable without storing raw PII.
type Event struct {
	Category        Category          `json:"category"`
	Action          Action            `json:"action"`
	Timestamp       time.Time         `json:"timestamp"`
	RequestID       string            `json:"request_id,omitempty"`
	SubjectIDHash   string            `json:"subject_id_hash,omitempty"`
	UserType        string            `json:"user_type,omitempty"`
	Language        string            `json:"language,omitempty"`
	DocumentID      string            `json:"document_id,omitempty"`
	DocumentVersion string            `json:"document_version,omitempty"`
	Actor           string            `json:"actor,omitempty"`
	Detail          map[string]string `json:"detail,omitempty"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}

// Memory is an in-process Publisher for tests and development.
type Memory struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Emit(ctx context.Context, event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of everything emitted so far.
func (m *Memory) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Close() error { return nil }
