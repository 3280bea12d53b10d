package streamer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// createTestCache creates an in-memory SQLite cache with a controllable clock
func createTestCache(t *testing.T, now *time.Time) *Cache {
	t.Helper()

	cache, err := NewCache(":memory:", time.Minute)
	require.NoError(t, err)
	cache.now = func() time.Time { return *now }

	t.Cleanup(func() {
		_ = cache.Close()
	})

	return cache
}

func TestNewCache(t *testing.T) {
	t.Run("in-memory database", func(t *testing.T) {
		cache, err := NewCache(":memory:", 0)
		require.NoError(t, err)
		defer func() { _ = cache.Close() }()

		require.NotNil(t, cache.db)
		require.Equal(t, DefaultTTL, cache.ttl)
	})

	t.Run("file-based database creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "streams.db")

		cache, err := NewCache(path, time.Minute)
		require.NoError(t, err)
		defer func() { _ = cache.Close() }()

		require.FileExists(t, path)
	})
}

func TestExpiresAt(t *testing.T) {
	resolved := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name string
		url  string
		want time.Time
	}{
		{
			name: "expire parameter",
			url:  "https://r1.example.com/videoplayback?id=1&expire=1700000600",
			want: time.Unix(1_700_000_600, 0),
		},
		{
			name: "no expire parameter",
			url:  "https://r1.example.com/videoplayback?id=1",
			want: resolved.Add(time.Minute),
		},
		{
			name: "non numeric expire",
			url:  "https://r1.example.com/videoplayback?expire=soon",
			want: resolved.Add(time.Minute),
		},
		{
			name: "already expired",
			url:  "https://r1.example.com/videoplayback?expire=1699999000",
			want: time.Unix(1_699_999_000, 0),
		},
		{
			name: "unparseable url",
			url:  "://bad",
			want: resolved.Add(time.Minute),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExpiresAt(tt.url, resolved, time.Minute))
		})
	}
}

func TestCache_PutGet(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := createTestCache(t, &now)
	ctx := context.Background()

	entry, err := cache.Put(ctx, " User@Example.com ", "Tabc", "https://r1.example.com/a?expire=1700000300", "batch-1")
	require.NoError(t, err)
	require.Equal(t, "user@example.com", entry.Account)
	require.Equal(t, time.Unix(1_700_000_300, 0), entry.ExpiresAt)

	got, ok, err := cache.Get(ctx, "user@example.com", "Tabc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry, got)

	_, ok, err = cache.Get(ctx, "other@example.com", "Tabc")
	require.NoError(t, err)
	require.False(t, ok, "entries are scoped to the account")

	now = now.Add(5 * time.Minute)
	_, ok, err = cache.Get(ctx, "user@example.com", "Tabc")
	require.NoError(t, err)
	require.False(t, ok, "expired entries are not served")
}

func TestCache_PutReplaces(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := createTestCache(t, &now)
	ctx := context.Background()

	_, err := cache.Put(ctx, "user@example.com", "Tabc", "https://old.example.com/", "batch-1")
	require.NoError(t, err)

	now = now.Add(10 * time.Second)
	_, err = cache.Put(ctx, "user@example.com", "Tabc", "https://new.example.com/", "batch-2")
	require.NoError(t, err)

	got, ok, err := cache.Get(ctx, "user@example.com", "Tabc")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "https://new.example.com/", got.URL)
	require.Equal(t, "batch-2", got.BatchID)

	count, err := cache.Count(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestCache_PruneAndCount(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := createTestCache(t, &now)
	ctx := context.Background()

	_, err := cache.Put(ctx, "a@example.com", "1", "https://x.example.com/1?expire=1700000030", "b")
	require.NoError(t, err)
	_, err = cache.Put(ctx, "a@example.com", "2", "https://x.example.com/2", "b") // ttl: 1m
	require.NoError(t, err)
	_, err = cache.Put(ctx, "b@example.com", "3", "https://x.example.com/3?expire=1700003600", "b")
	require.NoError(t, err)

	now = now.Add(45 * time.Second)

	live, err := cache.Count(ctx, false)
	require.NoError(t, err)
	require.Equal(t, 2, live)

	all, err := cache.Count(ctx, true)
	require.NoError(t, err)
	require.Equal(t, 3, all)

	deleted, err := cache.Prune(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	now = now.Add(time.Minute)
	deleted, err = cache.Prune(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	remaining, err := cache.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, "3", remaining[0].TrackID)
}

func TestCache_List(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cache := createTestCache(t, &now)
	ctx := context.Background()

	empty, err := cache.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, empty)

	for i, id := range []string{"1", "2", "3"} {
		now = now.Add(time.Duration(i) * time.Second)
		_, err := cache.Put(ctx, "a@example.com", id, "https://x.example.com/"+id, "b")
		require.NoError(t, err)
	}
	_, err = cache.Put(ctx, "b@example.com", "9", "https://x.example.com/9", "b")
	require.NoError(t, err)

	entries, err := cache.List(ctx, "A@example.com")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "3", entries[0].TrackID, "newest first")
	require.Equal(t, "1", entries[2].TrackID)

	all, err := cache.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)

	now = now.Add(time.Hour)
	all, err = cache.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4, "list includes expired entries")
	require.True(t, all[0].Expired(now))
}
