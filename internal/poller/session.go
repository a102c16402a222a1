package poller

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sokoflow/marketplace/internal/domain"
)

// SessionStore persists the in-flight checkout so the poller can resume the
// same payment reference after a process restart.
type SessionStore interface {
	Save(session *domain.CheckoutSession) error
	Load() (*domain.CheckoutSession, error)
	Clear() error
}

// FileStore keeps the session as a single JSON document under a fixed path,
// the client-side equivalent of a browser's persisted storage key.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Save(session *domain.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Load() (*domain.CheckoutSession, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	session := &domain.CheckoutSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
