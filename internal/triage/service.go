package triage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// Analyzer produces usage suggestions for a user's items.
type Analyzer interface {
	AnalyzeUsage(ctx context.Context, items []model.Item, profile model.StyleProfile) ([]model.AnalysisResult, error)
}

// View is what a client sees of a session: its state and the presented
// result together with the item's current data.
type View struct {
	ID        string                `json:"id,omitempty"`
	State     State                 `json:"state"`
	Cursor    int                   `json:"cursor"`
	Total     int                   `json:"total"`
	Remaining int                   `json:"remaining"`
	Result    *model.AnalysisResult `json:"result,omitempty"`
	Item      *model.Item           `json:"item,omitempty"`
}

// Service runs triage sessions. Operations on one user's session are
// serialized; different users never wait on each other.
type Service struct {
	db       *sql.DB
	analyzer Analyzer
	sessions SessionStore
	locks    keyedMutex
	now      func() time.Time
}

// NewService returns a triage service.
func NewService(db *sql.DB, analyzer Analyzer, sessions SessionStore) *Service {
	return &Service{db: db, analyzer: analyzer, sessions: sessions, now: time.Now}
}

// Start runs a fresh usage analysis over the user's ACTIVE items. A
// presenting or finished session is discarded first. With no ACTIVE items
// the session stays Idle and the analyzer is not called. A failed analysis
// returns the session to Idle.
func (s *Service) Start(ctx context.Context, userID int64) (*View, error) {
	unlock := s.locks.Lock(userID)
	sess, err := s.load(ctx, userID)
	if err != nil {
		unlock()
		return nil, err
	}
	if sess.State == StateLoading {
		unlock()
		return nil, ErrBusy
	}

	items, err := store.ListItemsByStatus(ctx, s.db, userID, model.ItemStatusActive)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("listing active items: %w", err)
	}
	if len(items) == 0 {
		sess.Fail(s.now())
		err := s.sessions.Put(ctx, userID, sess)
		unlock()
		if err != nil {
			return nil, err
		}
		return s.view(ctx, userID, sess)
	}

	if err := sess.Begin(s.now()); err != nil {
		unlock()
		return nil, err
	}
	if err := s.sessions.Put(ctx, userID, sess); err != nil {
		unlock()
		return nil, err
	}
	sessionID := sess.ID
	unlock()

	results, analyzeErr := s.analyze(ctx, userID, items)

	// The request may have been cancelled; the outcome must still be saved.
	ctx = context.WithoutCancel(ctx)

	unlock = s.locks.Lock(userID)
	defer unlock()

	sess, err = s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess.ID != sessionID || sess.State != StateLoading {
		return nil, ErrSuperseded
	}

	if analyzeErr != nil {
		slog.Error("triage analysis failed", "user_id", userID, "error", analyzeErr)
		sess.Fail(s.now())
		if err := s.sessions.Put(ctx, userID, sess); err != nil {
			return nil, err
		}
		return nil, analyzeErr
	}

	sess.Receive(results, s.now())
	if err := s.sessions.Put(ctx, userID, sess); err != nil {
		return nil, err
	}
	slog.Info("triage started", "user_id", userID, "session", sess.ID, "results", len(results))
	return s.view(ctx, userID, sess)
}

func (s *Service) analyze(ctx context.Context, userID int64, items []model.Item) ([]model.AnalysisResult, error) {
	profile, err := store.GetStyleProfile(ctx, s.db, userID)
	if err != nil {
		return nil, fmt.Errorf("getting style profile: %w", err)
	}
	return s.analyzer.AnalyzeUsage(ctx, items, *profile)
}

// Current returns the user's session as it stands.
func (s *Service) Current(ctx context.Context, userID int64) (*View, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, userID, sess)
}

// Decide applies d to the item of the presented result and advances the
// cursor. If the item is gone or can no longer take the new status the
// store is left unchanged, but the cursor still advances.
func (s *Service) Decide(ctx context.Context, userID int64, d Decision) (*View, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("triage: unknown decision %q", d)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	sess, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	result := sess.Current()
	if result == nil {
		return nil, ErrNotPresenting
	}

	status := d.ToStatus()
	_, err = store.SetItemStatus(ctx, s.db, userID, result.ItemID, status, store.StatusChangeInfo{
		Source:    model.ChangeSourceTriage,
		Reason:    result.Reasoning,
		ChangedBy: &userID,
	})
	switch {
	case errors.Is(err, model.ErrNotFound), errors.Is(err, model.ErrInvalidTransition):
		slog.Warn("triage decision skipped", "user_id", userID, "item", result.ItemID, "decision", d, "reason", err)
	case err != nil:
		return nil, fmt.Errorf("applying triage decision: %w", err)
	default:
		slog.Info("triage decision applied", "user_id", userID, "item", result.ItemID, "status", status)
	}

	if err := sess.Advance(s.now()); err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, userID, sess); err != nil {
		return nil, err
	}
	return s.view(ctx, userID, sess)
}

// Reset discards the user's session, including an in-flight analysis.
func (s *Service) Reset(ctx context.Context, userID int64) error {
	unlock := s.locks.Lock(userID)
	defer unlock()
	return s.sessions.Delete(ctx, userID)
}

func (s *Service) load(ctx context.Context, userID int64) (*Session, error) {
	sess, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		sess = NewSession()
	}
	return sess, nil
}

func (s *Service) view(ctx context.Context, userID int64, sess *Session) (*View, error) {
	v := &View{
		ID:        sess.ID,
		State:     sess.State,
		Cursor:    sess.Cursor,
		Total:     len(sess.Results),
		Remaining: sess.Remaining(),
		Result:    sess.Current(),
	}
	if v.Result != nil {
		item, err := store.GetItem(ctx, s.db, userID, v.Result.ItemID)
		if err != nil {
			return nil, err
		}
		v.Item = item
	}
	return v, nil
}

// keyedMutex hands out one mutex per user ID and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

// Lock locks key and returns the matching unlock function.
func (k *keyedMutex) Lock(key int64) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[int64]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
