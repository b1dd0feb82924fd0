// Package session holds learner editor sessions: the current source for a
// lesson or question and the run currently grading it.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Kind is what a session is working on
type Kind string

const (
	KindLesson   Kind = "lesson"
	KindQuestion Kind = "question"
)

// Status represents the session state
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session represents an open editor
type Session struct {
	ID         string `json:"id"`
	Kind       Kind   `json:"kind"`
	LessonID   string `json:"lesson_id,omitempty"`
	QuestionID string `json:"question_id,omitempty"`
	Language   string `json:"language"`
	Code       string `json:"code"`
	Status     Status `json:"status"`

	// Statistics
	RunCount  int        `json:"run_count"`
	LastRunID string     `json:"last_run_id,omitempty"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	Passed    bool       `json:"passed"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewLessonSession creates a session for a course lesson
func NewLessonSession(lessonID, language, code string) *Session {
	s := newSession(KindLesson, language, code)
	s.LessonID = lessonID
	return s
}

// NewQuestionSession creates a session for a practice question
func NewQuestionSession(questionID, language, code string) *Session {
	s := newSession(KindQuestion, language, code)
	s.QuestionID = questionID
	return s
}

func newSession(kind Kind, language, code string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New().String(),
		Kind:      kind,
		Language:  language,
		Code:      code,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ContentID returns the lesson or question the session is bound to
func (s *Session) ContentID() string {
	if s.Kind == KindQuestion {
		return s.QuestionID
	}
	return s.LessonID
}

// UpdateCode replaces the session's source
func (s *Session) UpdateCode(code string) {
	s.Code = code
	s.UpdatedAt = time.Now()
}

// RecordRun records that a run was started
func (s *Session) RecordRun(runID string) {
	now := time.Now()
	s.RunCount++
	s.LastRunID = runID
	s.LastRunAt = &now
	s.UpdatedAt = now
}

// Complete marks the session as completed
func (s *Session) Complete() {
	s.Status = StatusCompleted
	s.Passed = true
	s.UpdatedAt = time.Now()
}
