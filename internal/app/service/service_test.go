package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kids_math/internal/common"
	"kids_math/internal/common/security"
	"kids_math/internal/domain/model"
	"kids_math/internal/domain/repository"
	"kids_math/internal/engine/generator"
	"kids_math/internal/engine/rng"
	"kids_math/internal/platform/logger"
	"kids_math/internal/platform/queue"
)

func TestMain(m *testing.M) {
	security.InitJWT([]byte("test-secret"), time.Hour)
	os.Exit(m.Run())
}

type fakePublisher struct {
	mu    sync.Mutex
	users []string
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, userID)
	return p.err
}

type fixture struct {
	store     *repository.MemoryStore
	auth      *AuthService
	progress  *ProgressService
	sessions  *SessionService
	exercises *ExerciseService
	publisher *fakePublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	log := logger.Nop()
	f := &fixture{store: store, publisher: &fakePublisher{}}
	f.auth = NewAuthService(store.Users(), store.Progress(), store, 5, log)
	f.progress = NewProgressService(store.Users(), store.Progress(), 5)
	f.sessions = NewSessionService(store.Sessions(), 50, 200)
	f.exercises = NewExerciseService(generator.New(rng.Seeded(1)), store.Exercises(), f.sessions, f.progress, store, f.publisher, log)
	return f
}

func (f *fixture) signup(t *testing.T, name string) *model.User {
	t.Helper()
	resp, err := f.auth.Signup(context.Background(), SignupRequest{Username: name, Password: "secret"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return resp.User
}

func submitReq(t model.ExerciseType, correct bool, spent int) SubmitRequest {
	return SubmitRequest{ExerciseID: 42, ExerciseType: string(t), IsCorrect: &correct, TimeSpent: &spent}
}

func TestSignupSeedsProgressAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")
	assert.Equal(t, 1, user.CurrentLevel)
	assert.Zero(t, user.TotalStars)

	rows, err := f.progress.ListProgress(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	for _, p := range rows {
		assert.Equal(t, 5, p.Total)
		assert.Zero(t, p.Completed)
		assert.Nil(t, p.LastCompletedAt)
	}

	_, err = f.auth.Signup(ctx, SignupRequest{Username: "mia", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrConflict)
	_, err = f.auth.Signup(ctx, SignupRequest{Username: "x", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrValidation)

	resp, err := f.auth.Login(ctx, LoginRequest{Username: "mia", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.User.ID)

	_, err = f.auth.Login(ctx, LoginRequest{Username: "mia", Password: "wrong"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Username: "nobody", Password: "secret"})
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestEnsureDemoLearner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	user, err := f.auth.EnsureDemoLearner(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, repository.DemoUsername, user.Username)
	assert.Equal(t, 2, user.CurrentLevel)

	rows, err := f.progress.ListProgress(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	sum := 0
	for _, p := range rows {
		assert.Equal(t, repository.DemoProgress[p.ExerciseType], p.Stars, p.ExerciseType)
		assert.Equal(t, repository.DemoProgress[p.ExerciseType], p.Completed, p.ExerciseType)
		sum += p.Stars
	}
	assert.Equal(t, 19, sum)
	assert.Equal(t, sum, user.TotalStars)

	again, err := f.auth.EnsureDemoLearner(ctx, "student")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
}

func TestSubmitCorrectAdvancesAndSaturates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")

	for range 4 {
		_, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeDivision, true, 10))
		require.NoError(t, err)
	}
	p, err := f.progress.GetProgress(ctx, user.ID, model.TypeDivision)
	require.NoError(t, err)
	require.Equal(t, 4, p.Completed)
	require.Equal(t, 4, p.Stars)

	res, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeDivision, true, 10))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 5, res.Progress.Completed)
	assert.Equal(t, 5, res.Progress.Stars)
	assert.Equal(t, 5, res.User.TotalStars)
	assert.True(t, res.Session.IsCorrect)
	assert.Equal(t, 42, res.Session.ExerciseID)

	res, err = f.exercises.Submit(ctx, user.ID, submitReq(model.TypeDivision, true, 10))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Progress.Completed)
	assert.Equal(t, 5, res.Progress.Stars)
	assert.Equal(t, 5, res.User.TotalStars, "saturated type adds no stars")

	assert.Len(t, f.publisher.users, 6)
}

func TestSubmitIncorrectOnlyRecordsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")
	_, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeAddition, true, 3))
	require.NoError(t, err)

	before, err := f.progress.GetProgress(ctx, user.ID, model.TypeAddition)
	require.NoError(t, err)

	res, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeAddition, false, 7))
	require.NoError(t, err)
	assert.False(t, res.Session.IsCorrect)
	assert.Equal(t, before, res.Progress)

	after, err := f.progress.GetProgress(ctx, user.ID, model.TypeAddition)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	u, err := f.progress.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.TotalStars)

	sessions, err := f.sessions.ListRecent(ctx, user.ID, nil, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 7, sessions[0].TimeSpent)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")
	yes, spent, negative := true, 5, -1

	tests := []struct {
		name string
		req  SubmitRequest
		user string
		want error
	}{
		{"unknown type", SubmitRequest{ExerciseType: "geometry", IsCorrect: &yes, TimeSpent: &spent}, user.ID, common.ErrInvalidInput},
		{"missing isCorrect", SubmitRequest{ExerciseType: "addition", TimeSpent: &spent}, user.ID, common.ErrInvalidInput},
		{"missing timeSpent", SubmitRequest{ExerciseType: "addition", IsCorrect: &yes}, user.ID, common.ErrInvalidInput},
		{"negative timeSpent", SubmitRequest{ExerciseType: "addition", IsCorrect: &yes, TimeSpent: &negative}, user.ID, common.ErrInvalidInput},
		{"unknown user", SubmitRequest{ExerciseType: "addition", IsCorrect: &yes, TimeSpent: &spent}, "ghost", common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.exercises.Submit(ctx, tt.user, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	sessions, err := f.sessions.ListRecent(ctx, user.ID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

type failingProgressRepo struct {
	repository.ProgressRepository
}

func (failingProgressRepo) IncrementAndClamp(context.Context, *sql.Tx, string, model.ExerciseType, int, time.Time) (*model.UserProgress, int, error) {
	return nil, 0, common.StorageError("failingProgressRepo", errors.New("connection reset"))
}

func TestSubmitIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")

	broken := NewProgressService(f.store.Users(), failingProgressRepo{f.store.Progress()}, 5)
	svc := NewExerciseService(generator.New(rng.Seeded(1)), f.store.Exercises(), f.sessions, broken, f.store, f.publisher, logger.Nop())

	_, err := svc.Submit(ctx, user.ID, submitReq(model.TypeAddition, true, 5))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.Equal(t, 500, common.HTTPStatusFromError(err))

	sessions, err := f.sessions.ListRecent(ctx, user.ID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, sessions, "session insert must roll back")
	assert.Empty(t, f.publisher.users)
}

func TestSubmitPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	user := f.signup(t, "mia")
	f.publisher.err = errors.New("redis down")

	res, err := f.exercises.Submit(context.Background(), user.ID, submitReq(model.TypeShapes, true, 2))
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestConcurrentSubmitsKeepInvariants(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeCounting, true, 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	p, err := f.progress.GetProgress(ctx, user.ID, model.TypeCounting)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Completed)
	assert.Equal(t, 5, p.Stars)

	u, err := f.progress.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, u.TotalStars)

	sessions, err := f.sessions.ListRecent(ctx, user.ID, nil, 100)
	require.NoError(t, err)
	assert.Len(t, sessions, 25)
}

func TestGenerateRandom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ex, err := f.exercises.GenerateRandom(ctx, "Addition", 2)
	require.NoError(t, err)
	assert.Equal(t, model.TypeAddition, ex.Type)
	assert.NoError(t, ex.CheckOptions())

	_, err = f.exercises.GenerateRandom(ctx, "geometry", 1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.exercises.GenerateRandom(ctx, "addition", 9)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestListCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	list, err := f.exercises.ListCatalog(ctx, "time_telling", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "3:30", list[0].CorrectAnswer().Text)

	bad := 7
	_, err = f.exercises.ListCatalog(ctx, "time_telling", &bad)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.exercises.ListCatalog(ctx, "nope", nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGetCatalogExercise(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	list, err := f.exercises.ListCatalog(ctx, "time_telling", nil)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := f.exercises.GetCatalogExercise(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, list[0].Slug, got.Slug)

	tests := []struct {
		name string
		id   int
		want error
	}{
		{"zero", 0, common.ErrInvalidInput},
		{"negative", -3, common.ErrInvalidInput},
		{"unknown", 9999, common.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.exercises.GetCatalogExercise(ctx, tt.id)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSessionListLimits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")
	for i := range 6 {
		typ := model.TypeAddition
		if i%2 == 1 {
			typ = model.TypeShapes
		}
		_, err := f.exercises.Submit(ctx, user.ID, submitReq(typ, i%3 == 0, i))
		require.NoError(t, err)
	}
	svc := NewSessionService(f.store.Sessions(), 2, 4)

	list, err := svc.ListRecent(ctx, user.ID, nil, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.ListRecent(ctx, user.ID, nil, 100)
	require.NoError(t, err)
	assert.Len(t, list, 4)

	shapes := model.TypeShapes
	list, err = svc.ListRecent(ctx, user.ID, &shapes, 10)
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, s := range list {
		assert.Equal(t, model.TypeShapes, s.ExerciseType)
	}

	_, err = svc.ListRecent(ctx, user.ID, nil, -1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestGetProgressErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.progress.GetProgress(ctx, "ghost", model.TypeAddition)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = f.progress.GetProgress(ctx, "ghost", model.ExerciseType("nope"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = f.progress.GetUser(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

type memCache struct {
	mu      sync.Mutex
	reports map[string]model.Report
	sets    int
}

func (c *memCache) Get(_ context.Context, userID string) (*model.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.reports[userID]
	if !ok {
		return nil, queue.ErrCacheMiss
	}
	return &r, nil
}

func (c *memCache) Set(_ context.Context, r *model.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[r.UserID] = *r
	c.sets++
	return nil
}

func TestReportSummaryUsesCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.signup(t, "mia")
	_, err := f.exercises.Submit(ctx, user.ID, submitReq(model.TypeAddition, true, 30))
	require.NoError(t, err)
	_, err = f.exercises.Submit(ctx, user.ID, submitReq(model.TypeAddition, false, 10))
	require.NoError(t, err)

	cache := &memCache{reports: map[string]model.Report{}}
	svc := NewReportService(f.store.Users(), f.store.Progress(), f.store.Sessions(), cache, logger.Nop())

	r, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalProblems)
	assert.Equal(t, 50, r.Accuracy)
	assert.Equal(t, 40, r.TotalTimeSpent)
	assert.Equal(t, 1, r.CompletedDays)
	assert.Equal(t, 1, cache.sets)

	_, err = f.exercises.Submit(ctx, user.ID, submitReq(model.TypeAddition, true, 5))
	require.NoError(t, err)

	r, err = svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, r.TotalProblems, "served from cache until refreshed")

	r, err = svc.Refresh(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, r.TotalProblems)
	assert.Equal(t, 2, cache.sets)

	_, err = svc.Summary(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestReportSummaryWithoutCache(t *testing.T) {
	f := newFixture(t)
	user := f.signup(t, "mia")
	svc := NewReportService(f.store.Users(), f.store.Progress(), f.store.Sessions(), nil, logger.Nop())

	r, err := svc.Summary(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Zero(t, r.TotalProblems)
	assert.Len(t, r.PerType, 10)
}
