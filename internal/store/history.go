package store

import (
	"strings"
	"sync"
	"time"

	"aipocket/backend/internal/models"

	"gorm.io/gorm"
)

// HistoryStore is the append-only conversation log. Messages are never
// updated, only appended and bulk-deleted (trim or cascade). Each mutation
// notifies the per-character watchers.
type HistoryStore struct {
	db *gorm.DB

	mu       sync.Mutex
	watchers map[uint]*broadcaster
}

// NewHistoryStore creates a history store
func NewHistoryStore(db *gorm.DB) *HistoryStore {
	return &HistoryStore{
		db:       db,
		watchers: make(map[uint]*broadcaster),
	}
}

// Append inserts a message, assigning its id and a timestamp that never
// decreases for the character even if the wall clock steps backwards.
func (s *HistoryStore) Append(message *models.ChatMessage) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var latest int64
		err := tx.Model(&models.ChatMessage{}).
			Where("character_id = ?", message.CharacterID).
			Select("COALESCE(MAX(timestamp), 0)").
			Scan(&latest).Error
		if err != nil {
			return err
		}

		ts := time.Now().UnixMilli()
		if ts < latest {
			ts = latest
		}
		message.Timestamp = ts

		return tx.Create(message).Error
	})
	if err != nil {
		return err
	}

	s.notify(message.CharacterID)
	return nil
}

// Recent returns at most limit messages for the character, the latest rows,
// ordered ascending by timestamp (ties keep insertion order).
func (s *HistoryStore) Recent(characterID uint, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.
		Where("character_id = ?", characterID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Flip newest-first fetch order into display order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Search filters the most recent window messages down to those containing
// query case-insensitively. Matches older than the window are not found;
// bounded recall keeps the scan cheap. An empty query returns the window
// unfiltered.
func (s *HistoryStore) Search(characterID uint, query string, window int) ([]models.ChatMessage, error) {
	messages, err := s.Recent(characterID, window)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return messages, nil
	}

	needle := strings.ToLower(query)
	filtered := messages[:0]
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Message), needle) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// Trim deletes all but the keep most recent messages for the character
func (s *HistoryStore) Trim(characterID uint, keep int) error {
	keepIDs := s.db.Model(&models.ChatMessage{}).
		Select("id").
		Where("character_id = ?", characterID).
		Order("timestamp DESC, id DESC").
		Limit(keep)

	err := s.db.
		Where("character_id = ? AND id NOT IN (?)", characterID, keepIDs).
		Delete(&models.ChatMessage{}).Error
	if err != nil {
		return err
	}

	s.notify(characterID)
	return nil
}

// DeleteAllFor removes every message for the character
func (s *HistoryStore) DeleteAllFor(characterID uint) error {
	err := s.db.Where("character_id = ?", characterID).Delete(&models.ChatMessage{}).Error
	if err != nil {
		return err
	}

	s.notify(characterID)
	return nil
}

// CountFor returns the number of stored messages for the character
func (s *HistoryStore) CountFor(characterID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.ChatMessage{}).
		Where("character_id = ?", characterID).
		Count(&count).Error
	return count, err
}

// Watch returns a notification channel that ticks whenever the character's
// history changes. The current state is signalled immediately on subscribe.
func (s *HistoryStore) Watch(characterID uint) (<-chan struct{}, func()) {
	return s.watcherFor(characterID).subscribe()
}

func (s *HistoryStore) watcherFor(characterID uint) *broadcaster {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.watchers[characterID]
	if !ok {
		b = newBroadcaster()
		s.watchers[characterID] = b
	}
	return b
}

func (s *HistoryStore) notify(characterID uint) {
	s.mu.Lock()
	b, ok := s.watchers[characterID]
	s.mu.Unlock()

	if ok {
		b.notify()
	}
}
