package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harunnryd/solace/internal/chain"
	"github.com/harunnryd/solace/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(path, shortLockConfig(time.Second))
	require.NoError(t, err)
	return s, path
}

func readPersisted(t *testing.T, path string) persistedState {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out persistedState
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func sampleMessages() []chain.Message {
	return []chain.Message{
		{ID: "c1-a-0", Role: chain.RoleUser, Content: "hello", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestOpen_MissingFileIsSignedOut(t *testing.T) {
	s, _ := openTestStore(t)

	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Identity().IsZero())
	assert.Equal(t, ChatLinkage{}, s.Chat())
}

func TestOpen_CorruptFileIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s, err := Open(path, nil)
	require.NoError(t, err)
	assert.False(t, s.IsAuthenticated())
}

func TestIdentity_PersistAndRehydrate(t *testing.T) {
	s, path := openTestStore(t)

	require.NoError(t, s.SetIdentity(Identity{
		EmployeeID:   "E100",
		Role:         "employee",
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))
	assert.True(t, s.IsAuthenticated())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.True(t, reopened.IsAuthenticated())
	assert.Equal(t, "E100", reopened.Identity().EmployeeID)
	assert.Equal(t, "refresh-1", reopened.RefreshToken())
}

func TestSetAccessToken_KeepsRestOfIdentity(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.SetIdentity(Identity{EmployeeID: "E1", Role: "employee", AccessToken: "old", RefreshToken: "r"}))

	require.NoError(t, s.SetAccessToken("new"))

	id := s.Identity()
	assert.Equal(t, "new", id.AccessToken)
	assert.Equal(t, "r", id.RefreshToken)
	assert.Equal(t, "E1", id.EmployeeID)
	assert.Equal(t, "new", readPersisted(t, path).Identity.AccessToken)
}

func TestClearIdentity_SignsOut(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.SetIdentity(Identity{EmployeeID: "E1", AccessToken: "a", RefreshToken: "r"}))
	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1", Status: "active"}))

	require.NoError(t, s.ClearIdentity())

	assert.False(t, s.IsAuthenticated())
	assert.True(t, s.Identity().IsZero())
	persisted := readPersisted(t, path)
	assert.Nil(t, persisted.Identity)
	assert.False(t, persisted.IsAuthenticated)
	require.NotNil(t, persisted.Chat, "chat linkage survives sign-out")
}

func TestSetChat_WrittenWhenChatIDPresent(t *testing.T) {
	s, path := openTestStore(t)

	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1", Status: "active", Messages: sampleMessages()}))

	persisted := readPersisted(t, path)
	require.NotNil(t, persisted.Chat)
	assert.Equal(t, "c1", persisted.Chat.ActiveChatID)
	assert.Len(t, persisted.Chat.Messages, 1)
}

func TestSetChat_KeptWhileMessagesInFlight(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1", Status: "active", Messages: sampleMessages()}))

	// Navigating away clears the chat id but the buffer still holds messages.
	require.NoError(t, s.SetChat(ChatLinkage{Messages: sampleMessages()}))

	assert.Equal(t, "", s.Chat().ActiveChatID)
	persisted := readPersisted(t, path)
	require.NotNil(t, persisted.Chat)
	assert.Equal(t, "c1", persisted.Chat.ActiveChatID)
}

func TestSetChat_ErasedWhenFullyEmpty(t *testing.T) {
	s, path := openTestStore(t)
	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1", Status: "active", Messages: sampleMessages()}))

	require.NoError(t, s.ClearChat())

	assert.Nil(t, readPersisted(t, path).Chat)

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	assert.Equal(t, ChatLinkage{}, reopened.Chat())
}

func TestChat_ReturnsCopy(t *testing.T) {
	s, _ := openTestStore(t)
	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1", Messages: sampleMessages()}))

	got := s.Chat()
	got.Messages[0].Content = "mutated"

	assert.Equal(t, "hello", s.Chat().Messages[0].Content)
}

func TestSnapshot(t *testing.T) {
	s, _ := openTestStore(t)
	require.NoError(t, s.SetIdentity(Identity{EmployeeID: "E1", AccessToken: "a"}))
	require.NoError(t, s.SetChat(ChatLinkage{ActiveChatID: "c1"}))

	snap := s.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "E1", snap.Identity.EmployeeID)
	assert.Equal(t, "c1", snap.Chat.ActiveChatID)
}

func TestResolveStatePath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SOLACE_HOME", "")
	os.Unsetenv("SOLACE_HOME")

	got, err := ResolveStatePath("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStatePath(), got)

	got, err = ResolveStatePath("~/custom/state.json")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "custom", "state.json"), got)
}

func TestFileLockConfigFrom(t *testing.T) {
	cfg, err := FileLockConfigFrom(config.StoreConfig{LockTimeout: "2s"})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.LockTimeout)
	assert.Equal(t, 50*time.Millisecond, cfg.LockRetry)
	assert.Equal(t, config.DefaultStoreLockMaxRetry, cfg.LockMaxRetry)

	_, err = FileLockConfigFrom(config.StoreConfig{LockRetry: "fast"})
	assert.Error(t, err)
}
