package repository

import (
	"context"
	"database/sql"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type progressKey struct {
	userID string
	t      model.ExerciseType
}

// MemoryStore keeps every table in process memory. Writes made through
// WithinTx are serialized and rolled back when the callback fails; the
// *sql.Tx handed to the callback is always nil.
type MemoryStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	users     map[string]model.User
	progress  map[progressKey]model.UserProgress
	sessions  []model.Session
	exercises map[int]model.Exercise
	nextExID  int
}

// NewMemoryStore returns an empty store with the demo catalog loaded.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users:     map[string]model.User{},
		progress:  map[progressKey]model.UserProgress{},
		exercises: map[int]model.Exercise{},
		nextExID:  1,
	}
	for _, ex := range DemoCatalog() {
		s.upsertExercise(&ex)
	}
	return s
}

func (s *MemoryStore) Users() UserRepository         { return memUsers{s} }
func (s *MemoryStore) Progress() ProgressRepository  { return memProgress{s} }
func (s *MemoryStore) Sessions() SessionRepository   { return memSessions{s} }
func (s *MemoryStore) Exercises() ExerciseRepository { return memExercises{s} }

func (s *MemoryStore) Store() Store {
	return Store{Users: s.Users(), Progress: s.Progress(), Sessions: s.Sessions(), Exercises: s.Exercises(), Tx: s}
}

type memorySnapshot struct {
	users     map[string]model.User
	progress  map[progressKey]model.UserProgress
	sessions  []model.Session
	exercises map[int]model.Exercise
	nextExID  int
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := memorySnapshot{
		users:     maps.Clone(s.users),
		progress:  maps.Clone(s.progress),
		sessions:  slices.Clone(s.sessions),
		exercises: maps.Clone(s.exercises),
		nextExID:  s.nextExID,
	}
	s.mu.RUnlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.users, s.progress, s.sessions = snap.users, snap.progress, snap.sessions
		s.exercises, s.nextExID = snap.exercises, snap.nextExID
		s.mu.Unlock()
		return err
	}
	return nil
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, _ *sql.Tx, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("user id %s already exists: %w", user.ID, common.ErrConflict)
	}
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return fmt.Errorf("user %q already exists: %w", user.Username, common.ErrConflict)
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	return &u, nil
}

func (r memUsers) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, common.ErrNotFound)
}

func (r memUsers) AddStars(ctx context.Context, _ *sql.Tx, id string, delta int) (*model.User, error) {
	if delta < 0 {
		return nil, fmt.Errorf("star delta %d: %w", delta, common.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
	}
	u.TotalStars += delta
	r.s.users[id] = u
	return &u, nil
}

type memProgress struct{ s *MemoryStore }

func (r memProgress) ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.UserProgress{}
	for k, p := range r.s.progress {
		if k.userID == userID {
			out = append(out, p)
		}
	}
	return sortProgress(out), nil
}

func (r memProgress) FindByUserAndType(ctx context.Context, userID string, t model.ExerciseType) (*model.UserProgress, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.progress[progressKey{userID, t}]
	if !ok {
		return nil, fmt.Errorf("progress %s for user %s: %w", t, userID, common.ErrNotFound)
	}
	return &p, nil
}

func (r memProgress) SeedForUser(ctx context.Context, _ *sql.Tx, userID string, types []model.ExerciseType, total int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range types {
		r.ensureLocked(userID, t, total)
	}
	return nil
}

func (r memProgress) ensureLocked(userID string, t model.ExerciseType, total int) model.UserProgress {
	key := progressKey{userID, t}
	p, ok := r.s.progress[key]
	if !ok {
		p = model.UserProgress{ID: uuid.NewString(), UserID: userID, ExerciseType: t, Total: total}
		r.s.progress[key] = p
	}
	return p
}

func (r memProgress) IncrementAndClamp(ctx context.Context, _ *sql.Tx, userID string, t model.ExerciseType, total int, at time.Time) (*model.UserProgress, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev := r.ensureLocked(userID, t, total)
	next, _ := prev.Advance(at)
	r.s.progress[progressKey{userID, t}] = next
	return &next, prev.Stars, nil
}

type memSessions struct{ s *MemoryStore }

func (r memSessions) Create(ctx context.Context, _ *sql.Tx, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sessions = append(r.s.sessions, *sess)
	return nil
}

// newestFirst walks sessions from the most recent insert, stable for equal timestamps.
func (r memSessions) newestFirst(keep func(model.Session) bool, limit int) []model.Session {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Session{}
	for i := len(r.s.sessions) - 1; i >= 0; i-- {
		if keep(r.s.sessions[i]) {
			out = append(out, r.s.sessions[i])
		}
	}
	slices.SortStableFunc(out, func(a, b model.Session) int {
		return b.CompletedAt.Compare(a.CompletedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r memSessions) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return r.newestFirst(func(s model.Session) bool { return s.UserID == userID }, limit), nil
}

func (r memSessions) ListByUserAndType(ctx context.Context, userID string, t model.ExerciseType, limit int) ([]model.Session, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	return r.newestFirst(func(s model.Session) bool {
		return s.UserID == userID && s.ExerciseType == t
	}, limit), nil
}

func (r memSessions) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Session, error) {
	return r.newestFirst(func(s model.Session) bool {
		return s.UserID == userID && !s.CompletedAt.Before(since)
	}, 0), nil
}

type memExercises struct{ s *MemoryStore }

func (s *MemoryStore) upsertExercise(ex *model.Exercise) {
	for id, existing := range s.exercises {
		if existing.Slug == ex.Slug {
			ex.ID = id
			s.exercises[id] = *ex
			return
		}
	}
	ex.ID = s.nextExID
	s.nextExID++
	s.exercises[ex.ID] = *ex
}

func (r memExercises) Upsert(ctx context.Context, ex *model.Exercise) error {
	if ex.Slug == "" {
		return fmt.Errorf("catalog exercise without slug: %w", common.ErrValidation)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.upsertExercise(ex)
	return nil
}

func (r memExercises) FindByID(ctx context.Context, id int) (*model.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	ex, ok := r.s.exercises[id]
	if !ok {
		return nil, fmt.Errorf("exercise %d: %w", id, common.ErrNotFound)
	}
	return &ex, nil
}

func (r memExercises) ListByType(ctx context.Context, t model.ExerciseType, difficulty *int) ([]model.Exercise, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Exercise{}
	for _, ex := range r.s.exercises {
		if ex.Type == t && (difficulty == nil || ex.Difficulty == *difficulty) {
			out = append(out, ex)
		}
	}
	slices.SortFunc(out, func(a, b model.Exercise) int {
		if a.Difficulty != b.Difficulty {
			return a.Difficulty - b.Difficulty
		}
		return a.ID - b.ID
	})
	return out, nil
}
