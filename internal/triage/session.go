// Package triage runs the swipe-driven review of AI suggestions that turns
// each suggestion into an item status change.
package triage

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/garderoba/internal/model"
)

// State is the stage of a triage session.
type State string

// Session states.
const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StatePresenting State = "presenting"
	StateDone       State = "done"
)

var (
	// ErrBusy is returned when an analysis is already in flight.
	ErrBusy = errors.New("triage: analysis already in progress")
	// ErrNotPresenting is returned when there is no result to decide on.
	ErrNotPresenting = errors.New("triage: no result is being presented")
	// ErrSuperseded is returned when a session was reset while its
	// analysis was in flight; the analysis results are dropped.
	ErrSuperseded = errors.New("triage: session was reset during analysis")
)

// Session is one user's triage run: the analysis results in presentation
// order and a cursor over them.
type Session struct {
	ID        string                 `json:"id"`
	State     State                  `json:"state"`
	Cursor    int                    `json:"cursor"`
	Results   []model.AnalysisResult `json:"results"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// NewSession returns an idle session.
func NewSession() *Session {
	return &Session{State: StateIdle, Results: []model.AnalysisResult{}}
}

// Begin moves the session to Loading under a fresh ID. A presenting or
// finished session is reset first.
func (s *Session) Begin(now time.Time) error {
	if s.State == StateLoading {
		return ErrBusy
	}
	s.reset()
	s.ID = uuid.NewString()
	s.State = StateLoading
	s.UpdatedAt = now
	return nil
}

// Receive stores the analysis results and presents the first one. An empty
// list finishes the session immediately.
func (s *Session) Receive(results []model.AnalysisResult, now time.Time) {
	if results == nil {
		results = []model.AnalysisResult{}
	}
	s.Results = results
	s.Cursor = 0
	s.State = StatePresenting
	if len(results) == 0 {
		s.State = StateDone
	}
	s.UpdatedAt = now
}

// Fail drops an in-flight analysis and returns to Idle.
func (s *Session) Fail(now time.Time) {
	s.reset()
	s.UpdatedAt = now
}

// Current returns the presented result, or nil when nothing is presented.
func (s *Session) Current() *model.AnalysisResult {
	if s.State != StatePresenting || s.Cursor >= len(s.Results) {
		return nil
	}
	r := s.Results[s.Cursor]
	return &r
}

// Advance moves the cursor past the presented result, finishing the
// session after the last one.
func (s *Session) Advance(now time.Time) error {
	if s.State != StatePresenting {
		return ErrNotPresenting
	}
	s.Cursor++
	if s.Cursor >= len(s.Results) {
		s.Cursor = len(s.Results)
		s.State = StateDone
	}
	s.UpdatedAt = now
	return nil
}

// Remaining returns how many results are still to be decided.
func (s *Session) Remaining() int {
	if s.State != StatePresenting {
		return 0
	}
	return len(s.Results) - s.Cursor
}

func (s *Session) reset() {
	s.ID = ""
	s.State = StateIdle
	s.Cursor = 0
	s.Results = []model.AnalysisResult{}
}
