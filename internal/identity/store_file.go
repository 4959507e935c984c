package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"consentmgr/pkg/platform/sentinel"
	"consentmgr/pkg/requestcontext"
)

const (
	fileDirName  = "consentmgr"
	fileBaseName = "identity.json"
)

type fileEntry struct {
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// FileStore keeps identifiers in a small JSON document on disk. It is the
// terminal equivalent of a browser cookie jar.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultFilePath is identity.json under the user's config directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, fileDirName, fileBaseName), nil
}

// NewFileStore stores identifiers at path. The file and its directory are
// created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", err
	}
	e, ok := entries[key]
	if !ok || (e.ExpiresAt != nil && expired(*e.ExpiresAt, requestcontext.Now(ctx))) {
		return "", sentinel.ErrNotFound
	}
	return e.Value, nil
}

func (s *FileStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	now := requestcontext.Now(ctx)
	for k, e := range entries {
		if e.ExpiresAt != nil && expired(*e.ExpiresAt, now) {
			delete(entries, k)
		}
	}
	entry := fileEntry{Value: value}
	if ttl > 0 {
		exp := now.Add(ttl).UTC()
		entry.ExpiresAt = &exp
	}
	entries[key] = entry
	return s.save(entries)
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return s.save(entries)
}

func (s *FileStore) load() (map[string]fileEntry, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]fileEntry), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read identity file: %w", err)
	}
	entries := make(map[string]fileEntry)
	if len(raw) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		// A corrupt file is treated as empty; the next write replaces it.
		return make(map[string]fileEntry), nil
	}
	return entries, nil
}

// save writes through a temp file and rename so readers never see a
// partial document.
func (s *FileStore) save(entries map[string]fileEntry) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create identity dir: %w", err)
	}
	payload, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode identity file: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+fileBaseName+".*")
	if err != nil {
		return fmt.Errorf("create temp identity file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("write identity file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod identity file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close identity file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace identity file: %w", err)
	}
	return nil
}
