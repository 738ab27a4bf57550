package database

import (
	"context"
	"os"
	"testing"
	"time"

	"chatpush/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests run against a real server when CHATPUSH_TEST_POSTGRES_DSN is set
func setupPostgres(t *testing.T) *PostgresStore {
	dsn := os.Getenv("CHATPUSH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CHATPUSH_TEST_POSTGRES_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgres_DeleteRecentMessages(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	// unique location keeps runs independent
	location := "test-" + uuid.NewString()
	now := time.Now()
	seed(t, store,
		models.ChatMessage{ID: uuid.NewString(), Location: location, UserID: userA, CreatedAt: now.Add(-time.Minute)},
		models.ChatMessage{ID: uuid.NewString(), Location: location, UserID: userB, CreatedAt: now.Add(-2 * time.Minute)},
		models.ChatMessage{ID: uuid.NewString(), Location: location, UserID: userA, CreatedAt: now.Add(-4 * time.Hour)},
		models.ChatMessage{ID: uuid.NewString(), Location: location, UserID: userC, CreatedAt: now.Add(-time.Minute)},
	)

	deleted, err := store.DeleteRecentMessages(ctx, models.PurgeFilter{
		Location: location,
		UserIDs:  []string{userA, userB},
		Since:    now.Add(-3 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestPostgres_DeleteMessagesByID(t *testing.T) {
	store := setupPostgres(t)
	ctx := context.Background()

	id1, id2 := uuid.NewString(), uuid.NewString()
	seed(t, store,
		models.ChatMessage{ID: id1, Location: "lobby", UserID: userA},
		models.ChatMessage{ID: id2, Location: "lobby", UserID: userB},
	)

	deleted, err := store.DeleteMessagesByID(ctx, []string{id1, id2, uuid.NewString()})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id1, id2}, deleted)

	_, err = store.GetMessage(ctx, id1)
	assert.Error(t, err)
}

func TestNewPostgres_EmptyDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), "")
	assert.Error(t, err)
}

func TestNewPostgres_InvalidDSN(t *testing.T) {
	_, err := NewPostgres(context.Background(), "://not-a-dsn")
	assert.Error(t, err)
}
