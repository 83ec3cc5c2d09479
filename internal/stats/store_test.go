package stats

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "stats.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndLookupUser(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	u, err := s.UserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.PasswordHash)

	_, err = s.UserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// usernames are unique, case-insensitively
	_, err = s.CreateUser(ctx, "ALICE", "other")
	assert.Error(t, err)
}

func TestNewUserStartsAtLevelOne(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "bob", "hash")
	require.NoError(t, err)

	ps, err := s.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), ps.XP)
	assert.Equal(t, int64(1), ps.Level)
	assert.Equal(t, int64(0), ps.GamesPlayed)
}

func TestRecordGameResultAccumulates(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, "carol", "hash")
	require.NoError(t, err)

	r, err := s.RecordGameResult(ctx, id, 100, true)
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.XPEarned)
	assert.Equal(t, int64(100), r.NewXP)
	assert.Equal(t, int64(2), r.NewLevel)

	r, err = s.RecordGameResult(ctx, id, 25, false)
	require.NoError(t, err)
	assert.Equal(t, int64(125), r.NewXP)
	assert.Equal(t, int64(2), r.NewLevel)

	ps, err := s.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(125), ps.XP)
	assert.Equal(t, int64(2), ps.GamesPlayed)
	assert.Equal(t, int64(1), ps.Wins)

	_, err = s.RecordGameResult(ctx, 999, 100, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLevelCurve(t *testing.T) {
	cases := []struct {
		xp    int64
		level int64
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{399, 2},
		{400, 3},
		{900, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.level, LevelForXP(c.xp), "xp=%d", c.xp)
	}
}
