package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
)

// Store holds the signed-in identity and the chat linkage, persisting both to
// a single JSON file on every mutation.
//
// Only the login/logout flow writes Identity and only the chat controller
// writes ChatLinkage; everything else reads through the getters or Snapshot.
type Store struct {
	path    string
	lockCfg *FileLockConfig

	mu            sync.RWMutex
	identity      Identity
	authenticated bool
	chat          ChatLinkage
	// persistedChat is what sits on disk; it lags chat when the linkage is
	// transiently empty but still carries messages.
	persistedChat *ChatLinkage
}

// Open rehydrates the store from path. A missing or empty file yields an
// unauthenticated store; a corrupt one is logged and treated as missing.
func Open(path string, lockCfg *FileLockConfig) (*Store, error) {
	resolved, err := ResolveStatePath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve state path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	if lockCfg == nil {
		lockCfg = DefaultFileLockConfig()
	}

	s := &Store{path: resolved, lockCfg: lockCfg}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the state file, discarding in-memory state.
func (s *Store) Reload() error {
	lock, err := NewFileLock(LockPath(s.path), s.lockCfg)
	if err != nil {
		return fmt.Errorf("failed to acquire state lock: %w", err)
	}
	defer lock.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read state: %w", err)
	}

	var persisted persistedState
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &persisted); err != nil {
			slog.Warn("Failed to parse state file, starting signed out", "path", s.path, "error", err)
			persisted = persistedState{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = Identity{}
	s.authenticated = false
	if persisted.Identity != nil {
		s.identity = *persisted.Identity
		s.authenticated = persisted.IsAuthenticated && s.identity.AccessToken != ""
	}

	s.chat = ChatLinkage{}
	s.persistedChat = nil
	if persisted.Chat != nil {
		s.chat = persisted.Chat.clone()
		c := persisted.Chat.clone()
		s.persistedChat = &c
	}
	return nil
}

func (s *Store) Identity() Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.AccessToken
}

func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity.RefreshToken
}

func (s *Store) Chat() ChatLinkage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chat.clone()
}

func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Identity:        s.identity,
		IsAuthenticated: s.authenticated,
		Chat:            s.chat.clone(),
	}
}

// SetIdentity records a successful login.
func (s *Store) SetIdentity(identity Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = identity
	s.authenticated = identity.AccessToken != ""
	return s.persistLocked()
}

// SetAccessToken swaps the access token after a refresh, keeping everything
// else in place.
func (s *Store) SetAccessToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity.AccessToken = token
	s.authenticated = token != ""
	return s.persistLocked()
}

// ClearIdentity signs the employee out. Chat linkage is left alone.
func (s *Store) ClearIdentity() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = Identity{}
	s.authenticated = false
	return s.persistLocked()
}

// SetChat replaces the chat linkage. It reaches disk when an active chat id is
// present; it is erased from disk only when both the chat id and the message
// buffer are empty. Anything in between keeps the last persisted linkage.
func (s *Store) SetChat(link ChatLinkage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chat = link.clone()
	switch {
	case link.ActiveChatID != "":
		c := link.clone()
		s.persistedChat = &c
	case len(link.Messages) == 0:
		s.persistedChat = nil
	}
	return s.persistLocked()
}

// ClearChat drops the chat linkage from memory and disk.
func (s *Store) ClearChat() error {
	return s.SetChat(ChatLinkage{})
}

func (s *Store) persistLocked() error {
	lock, err := NewFileLock(LockPath(s.path), s.lockCfg)
	if err != nil {
		return fmt.Errorf("failed to acquire state lock: %w", err)
	}
	defer lock.Unlock()

	out := persistedState{IsAuthenticated: s.authenticated, Chat: s.persistedChat}
	if !s.identity.IsZero() {
		identity := s.identity
		out.Identity = &identity
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
