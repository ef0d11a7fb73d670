package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

func newUser(id, name string) *model.User {
	return &model.User{ID: id, Username: name, CurrentLevel: 1, CreatedAt: time.Now()}
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	users := NewMemoryStore().Users()

	require.NoError(t, users.Create(ctx, nil, newUser("u1", "mia")))
	err := users.Create(ctx, nil, newUser("u2", "mia"))
	assert.ErrorIs(t, err, common.ErrConflict)

	got, err := users.FindByUsername(ctx, "mia")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	_, err = users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	u, err := users.AddStars(ctx, nil, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, u.TotalStars)

	_, err = users.AddStars(ctx, nil, "u1", -1)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = users.AddStars(ctx, nil, "missing", 1)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryIncrementAndClamp(t *testing.T) {
	ctx := context.Background()
	progress := NewMemoryStore().Progress()
	at := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, progress.SeedForUser(ctx, nil, "u1", model.AllExerciseTypes(), 5))
	rows, err := progress.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, model.TypeAddition, rows[0].ExerciseType)
	assert.Equal(t, model.TypeTimeTelling, rows[9].ExerciseType)

	for i := 1; i <= 8; i++ {
		p, prev, err := progress.IncrementAndClamp(ctx, nil, "u1", model.TypeDivision, 5, at)
		require.NoError(t, err)
		assert.Equal(t, min(i, 5), p.Completed)
		assert.Equal(t, min(i, 5), p.Stars)
		assert.Equal(t, min(i-1, 5), prev)
		assert.Equal(t, at, *p.LastCompletedAt)
	}

	// Missing rows are created on first increment.
	p, prev, err := progress.IncrementAndClamp(ctx, nil, "u2", model.TypeShapes, 3, at)
	require.NoError(t, err)
	assert.Zero(t, prev)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 1, p.Completed)

	_, err = progress.FindByUserAndType(ctx, "u2", model.TypeFractions)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryConcurrentIncrementsNeverExceedLimits(t *testing.T) {
	ctx := context.Background()
	progress := NewMemoryStore().Progress()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		gains int
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, prev, err := progress.IncrementAndClamp(ctx, nil, "u1", model.TypeAddition, 5, time.Now())
			assert.NoError(t, err)
			mu.Lock()
			gains += p.Stars - prev
			mu.Unlock()
		}()
	}
	wg.Wait()

	p, err := progress.FindByUserAndType(ctx, "u1", model.TypeAddition)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Completed)
	assert.Equal(t, 5, p.Stars)
	assert.Equal(t, 5, gains)
}

func TestMemoryWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users().Create(ctx, nil, newUser("u1", "mia")))

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(tx *sql.Tx) error {
		require.NoError(t, store.Sessions().Create(ctx, tx, &model.Session{ID: "s1", UserID: "u1", CompletedAt: time.Now()}))
		_, _, err := store.Progress().IncrementAndClamp(ctx, tx, "u1", model.TypeAddition, 5, time.Now())
		require.NoError(t, err)
		_, err = store.Users().AddStars(ctx, tx, "u1", 1)
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	sessions, err := store.Sessions().ListRecentByUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	_, err = store.Progress().FindByUserAndType(ctx, "u1", model.TypeAddition)
	assert.ErrorIs(t, err, common.ErrNotFound)
	u, err := store.Users().FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, u.TotalStars)

	err = store.WithinTx(ctx, func(tx *sql.Tx) error {
		return store.Sessions().Create(ctx, tx, &model.Session{ID: "s2", UserID: "u1", CompletedAt: time.Now()})
	})
	require.NoError(t, err)
	sessions, err = store.Sessions().ListRecentByUser(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestMemorySessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemoryStore().Sessions()
	base := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	add := func(id string, typ model.ExerciseType, offset time.Duration) {
		require.NoError(t, sessions.Create(ctx, nil, &model.Session{
			ID: id, UserID: "u1", ExerciseType: typ, CompletedAt: base.Add(offset),
		}))
	}
	add("a", model.TypeAddition, 0)
	add("b", model.TypeShapes, time.Hour)
	add("c", model.TypeAddition, 2*time.Hour)
	add("d", model.TypeAddition, 2*time.Hour)
	require.NoError(t, sessions.Create(ctx, nil, &model.Session{ID: "x", UserID: "u2", CompletedAt: base}))

	recent, err := sessions.ListRecentByUser(ctx, "u1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, sessionIDs(recent))

	byType, err := sessions.ListByUserAndType(ctx, "u1", model.TypeAddition, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "a"}, sessionIDs(byType))

	since, err := sessions.ListByUserSince(ctx, "u1", base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b"}, sessionIDs(since))

	_, err = sessions.ListRecentByUser(ctx, "u1", 0)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMemoryCatalog(t *testing.T) {
	ctx := context.Background()
	exercises := NewMemoryStore().Exercises()

	list, err := exercises.ListByType(ctx, model.TypeAddition, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "five-apples-plus-three", list[0].Slug)

	hard := 3
	list, err = exercises.ListByType(ctx, model.TypeAddition, &hard)
	require.NoError(t, err)
	assert.Empty(t, list)

	ex := DemoCatalog()[0]
	ex.Difficulty = 2
	require.NoError(t, exercises.Upsert(ctx, &ex))
	assert.Equal(t, list0ID(t, exercises), ex.ID)

	_, err = exercises.FindByID(ctx, 999)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDemoCatalogIsConsistent(t *testing.T) {
	seen := map[string]bool{}
	types := map[model.ExerciseType]bool{}
	for _, ex := range DemoCatalog() {
		assert.NoError(t, ex.CheckOptions(), ex.Slug)
		assert.False(t, seen[ex.Slug])
		seen[ex.Slug] = true
		types[ex.Type] = true
		assert.Equal(t, ex.Type, ex.Problem.Kind())
	}
	assert.Len(t, types, 10)
}

func list0ID(t *testing.T, repo ExerciseRepository) int {
	t.Helper()
	list, err := repo.ListByType(context.Background(), model.TypeAddition, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Difficulty)
	return list[0].ID
}

func sessionIDs(ss []model.Session) []string {
	ids := make([]string, len(ss))
	for i, s := range ss {
		ids[i] = s.ID
	}
	return ids
}
