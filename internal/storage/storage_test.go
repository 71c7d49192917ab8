package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/local-legends/pkg/chat"
	"github.com/jwebster45206/local-legends/pkg/state"
)

func setupTestRedis(t *testing.T, dataDir string) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewRedisStorage("redis://"+mr.Addr(), dataDir, time.Hour, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s, mr
}

func TestNewRedisStorage_BadURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err := NewRedisStorage("not a url", "", 0, logger)
	assert.Error(t, err)
}

func TestRedisStorage_Ping(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.WaitForConnection(ctx, 3, time.Millisecond))

	mr.Close()
	assert.Error(t, s.Ping(ctx))
	assert.Error(t, s.WaitForConnection(ctx, 2, time.Millisecond))
}

func TestRedisStorage_Sessions(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	ctx := context.Background()

	loaded, err := s.LoadSession(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	sess := state.NewSession("s1", time.Now().Add(-time.Hour))
	sess.AddExchange("Tyler",
		chat.ChatMessage{Role: chat.ChatRoleUser, Content: "hi"},
		chat.ChatMessage{Role: chat.ChatRoleAgent, Content: "yo", Options: []string{"sup", chat.FreeTextOption}})
	require.NoError(t, s.SaveSession(ctx, sess))

	assert.True(t, mr.Exists("session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	loaded, err = s.LoadSession(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "s1", loaded.ID)
	require.Len(t, loaded.History("tyler"), 2)
	assert.Equal(t, []string{"sup", chat.FreeTextOption}, loaded.History("Tyler")[1].Options)
	assert.True(t, loaded.LastActive.After(loaded.CreatedAt))

	mr.FastForward(2 * time.Hour)
	loaded, err = s.LoadSession(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, loaded, "idle sessions expire")

	require.NoError(t, s.SaveSession(ctx, sess))
	require.NoError(t, s.DeleteSession(ctx, "s1"))
	assert.False(t, mr.Exists("session:s1"))

	assert.Error(t, s.SaveSession(ctx, nil))
}

func TestRedisStorage_CorruptSession(t *testing.T) {
	s, mr := setupTestRedis(t, t.TempDir())
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := s.LoadSession(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisStorage_ListNPCs(t *testing.T) {
	t.Run("built-in roster", func(t *testing.T) {
		s, _ := setupTestRedis(t, t.TempDir())
		npcs, err := s.ListNPCs(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, npcs)
	})

	t.Run("roster file", func(t *testing.T) {
		dir := t.TempDir()
		roster := `[{"name":"Lena","image":"la_jolla.png","area_color":"#44aa88","position":{"x":10,"y":20}}]`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "npcs.json"), []byte(roster), 0o644))

		s, _ := setupTestRedis(t, dir)
		npcs, err := s.ListNPCs(context.Background())
		require.NoError(t, err)
		require.Len(t, npcs, 1)
		assert.Equal(t, "Lena", npcs[0].Name)
		assert.Equal(t, 20, npcs[0].Position.Y)
	})

	t.Run("broken roster file", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "npcs.json"), []byte("[{"), 0o644))

		s, _ := setupTestRedis(t, dir)
		_, err := s.ListNPCs(context.Background())
		assert.Error(t, err)
	})
}
