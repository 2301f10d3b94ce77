package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/linkshare/linkshare/backend/session-store/internal/models"
)

var alice = &models.UserData{ID: 7, Username: "alice", Email: "alice@example.com"}

func TestMemoryRepository_UniqueToken(t *testing.T) {
	repo := NewMemoryRepository[RefreshTokenSession]()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, repo.Insert(ctx, &RefreshTokenSession{RefreshToken: "r1", Expired: exp, UserData: alice}))
	err := repo.Insert(ctx, &RefreshTokenSession{RefreshToken: "r1", Expired: exp, UserData: alice})
	require.True(t, errors.Is(err, ErrDuplicateToken), "got %v", err)
	require.Equal(t, 1, repo.Len())

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.False(t, got.ObjectID.IsZero())
	require.Equal(t, alice.ID, got.UserData.ID)
}

func TestMemoryRepository_Expiry(t *testing.T) {
	repo := NewMemoryRepository[AccessTokenSession]()
	ctx := context.Background()
	now := time.Now()
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a1", Expired: now.Add(time.Minute), UserData: alice}))
	_, err := repo.Get(ctx, "a1")
	require.NoError(t, err)

	repo.now = func() time.Time { return now.Add(time.Minute) }
	_, err = repo.Get(ctx, "a1")
	require.ErrorIs(t, err, ErrNotFound)

	// the token stays taken until the expired record is purged
	require.ErrorIs(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a1", Expired: now.Add(time.Hour), UserData: alice}), ErrDuplicateToken)

	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a2", Expired: now.Add(2 * time.Minute), UserData: alice}))
	require.Equal(t, 1, repo.PurgeExpired())
	require.Equal(t, 1, repo.Len())
	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a1", Expired: now.Add(time.Hour), UserData: alice}))
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository[AccessTokenSession]()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	bob := &models.UserData{ID: 8, Username: "bob"}

	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a1", Expired: exp, UserData: alice}))
	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "a2", Expired: exp, UserData: alice}))
	require.NoError(t, repo.Insert(ctx, &AccessTokenSession{AccessToken: "b1", Expired: exp, UserData: bob}))

	require.NoError(t, repo.Delete(ctx, "b1"))
	require.ErrorIs(t, repo.Delete(ctx, "b1"), ErrNotFound)

	removed, err := repo.DeleteByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a1", "a2"}, removed)
	require.Zero(t, repo.Len())
}

func TestRunJanitor(t *testing.T) {
	repo := NewMemoryRepository[AccessTokenSession]()
	require.NoError(t, repo.Insert(context.Background(), &AccessTokenSession{AccessToken: "a1", Expired: time.Now().Add(20 * time.Millisecond)}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		RunJanitor(ctx, 10*time.Millisecond, repo)
		close(done)
	}()
	require.Eventually(t, func() bool { return repo.Len() == 0 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
