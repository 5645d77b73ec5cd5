package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/samber/lo"
	"github.com/samber/oops"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/account/domain"
	sharedErrors "github.com/dmarquezv/tempmail-otp-bot/internal/shared/errors"
)

// FileStorage implements account.Repository using file system
type FileStorage struct {
	basePath string
	mu       sync.RWMutex
}

// NewFileStorage creates a new file-based account repository
func NewFileStorage(basePath string) (Repository, error) {
	accountPath := filepath.Join(basePath, "accounts")
	if err := os.MkdirAll(accountPath, 0755); err != nil {
		return nil, oops.With("base_path", basePath, "context", "failed to create accounts directory").Wrap(err)
	}

	return &FileStorage{basePath: accountPath}, nil
}

func (s *FileStorage) Get(chatID int64) ([]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.read(chatID)
}

func (s *FileStorage) Put(chatID int64, accounts []*domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(chatID, accounts)
}

func (s *FileStorage) Delete(chatID int64, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.read(chatID)
	if err != nil {
		return err
	}

	remaining := lo.Filter(accounts, func(a *domain.Account, _ int) bool {
		return a.Email != email
	})
	if len(remaining) == len(accounts) {
		return oops.With("chat_id", chatID, "email", email).Wrap(sharedErrors.ErrAccountNotFound)
	}

	return s.write(chatID, remaining)
}

func (s *FileStorage) All() (map[int64][]*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, oops.With("directory", s.basePath, "context", "failed to read accounts directory").Wrap(err)
	}

	result := make(map[int64][]*domain.Account)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		chatID, err := strconv.ParseInt(entry.Name()[:len(entry.Name())-len(".json")], 10, 64)
		if err != nil {
			continue
		}

		accounts, err := s.read(chatID)
		if err != nil {
			continue
		}
		result[chatID] = accounts
	}

	return result, nil
}

func (s *FileStorage) read(chatID int64) ([]*domain.Account, error) {
	path := filepath.Join(s.basePath, fmt.Sprintf("%d.json", chatID))
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []*domain.Account{}, nil
		}
		return nil, oops.With("chat_id", chatID, "context", "failed to read accounts").Wrap(err)
	}

	var accounts []*domain.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to unmarshal accounts").Wrap(err)
	}

	return accounts, nil
}

func (s *FileStorage) write(chatID int64, accounts []*domain.Account) error {
	path := filepath.Join(s.basePath, fmt.Sprintf("%d.json", chatID))
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to marshal accounts").Wrap(err)
	}

	return os.WriteFile(path, data, 0644)
}
