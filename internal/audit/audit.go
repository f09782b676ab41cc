// Package audit adapts the history store into the runner.AuditSink
// interface, and adds the conversational log the optional survey
// collaborator writes to.
package audit

import (
	"context"

	"aird/internal/history"
)

// Sink logs probe queries (and, separately, conversational turns) against a
// history store, scoped to one assessment/session pair.
type Sink struct {
	store        *history.Store
	assessmentID string
	sessionID    string
}

// NewSink returns a Sink bound to store, assessmentID, and sessionID. A
// nil store makes every method a no-op, so callers can construct a Sink
// unconditionally and only gate on whether audit was requested.
func NewSink(store *history.Store, assessmentID, sessionID string) *Sink {
	return &Sink{store: store, assessmentID: assessmentID, sessionID: sessionID}
}

// LogQuery implements runner.AuditSink.
func (s *Sink) LogQuery(sql, targetType, factor, requirement string) {
	if s == nil || s.store == nil {
		return
	}
	_ = s.store.WriteAuditQuery(context.Background(), s.assessmentID, s.sessionID, sql, targetType, factor, requirement)
}

// LogConversation appends one survey-collaborator turn.
func (s *Sink) LogConversation(ctx context.Context, phase, role, content string) {
	if s == nil || s.store == nil {
		return
	}
	_ = s.store.WriteAuditConversation(ctx, s.assessmentID, s.sessionID, phase, role, content)
}

// SetAssessmentID stamps the assessment id once the report is persisted and
// its id becomes known (audit records logged before save reference an
// empty assessment_id, matching the optional-FK shape of
// original_source/agent/storage.py's audit tables).
func (s *Sink) SetAssessmentID(id string) {
	if s == nil {
		return
	}
	s.assessmentID = id
}
