package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/samber/oops"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/license/domain"
	sharedErrors "github.com/dmarquezv/tempmail-otp-bot/internal/shared/errors"
)

// FileStorage implements license.Repository using file system
type FileStorage struct {
	keyPath string
	subPath string
	mu      sync.RWMutex
}

// NewFileStorage creates a new file-based license repository
func NewFileStorage(basePath string) (Repository, error) {
	keyPath := filepath.Join(basePath, "keys")
	if err := os.MkdirAll(keyPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create keys directory").Wrap(err)
	}

	subPath := filepath.Join(basePath, "subscriptions")
	if err := os.MkdirAll(subPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create subscriptions directory").Wrap(err)
	}

	return &FileStorage{keyPath: keyPath, subPath: subPath}, nil
}

func (s *FileStorage) SaveKey(key *domain.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.keyPath, key.Code+".json")
	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return oops.With("code", key.Code, "context", "failed to marshal key").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStorage) GetKey(code string) (*domain.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.keyPath, code+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.With("code", code).Wrap(sharedErrors.ErrKeyNotFound)
		}
		return nil, oops.With("code", code, "context", "failed to read key").Wrap(err)
	}

	var key domain.Key
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, oops.With("code", code, "context", "failed to unmarshal key").Wrap(err)
	}

	return &key, nil
}

func (s *FileStorage) SaveSubscription(sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.subPath, fmt.Sprintf("%d.json", sub.ChatID))
	data, err := json.MarshalIndent(sub, "", "  ")
	if err != nil {
		return oops.With("chat_id", sub.ChatID, "context", "failed to marshal subscription").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}

func (s *FileStorage) GetSubscription(chatID int64) (*domain.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.subPath, fmt.Sprintf("%d.json", chatID))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, oops.With("chat_id", chatID, "context", "failed to read subscription").Wrap(err)
	}

	var sub domain.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to unmarshal subscription").Wrap(err)
	}

	return &sub, nil
}
