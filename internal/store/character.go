package store

import (
	"errors"

	"aipocket/backend/internal/models"

	"gorm.io/gorm"
)

// ErrProtectedCharacter is reported when a delete targets a preinstalled character
var ErrProtectedCharacter = errors.New("preinstalled characters cannot be deleted")

// CharacterStore provides CRUD over character profiles. Mutations notify
// watchers so list views and sessions can re-read.
type CharacterStore struct {
	db      *gorm.DB
	history *HistoryStore
	watch   *broadcaster
}

// NewCharacterStore creates a character store. The history store is needed
// for the delete cascade.
func NewCharacterStore(db *gorm.DB, history *HistoryStore) *CharacterStore {
	return &CharacterStore{
		db:      db,
		history: history,
		watch:   newBroadcaster(),
	}
}

// Create inserts a character and assigns its id
func (s *CharacterStore) Create(character *models.Character) error {
	if err := s.db.Create(character).Error; err != nil {
		return err
	}
	s.watch.notify()
	return nil
}

// GetByID returns the character, or nil when it does not exist
func (s *CharacterStore) GetByID(id uint) (*models.Character, error) {
	var character models.Character
	err := s.db.First(&character, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &character, nil
}

// List returns all characters ordered by id ascending
func (s *CharacterStore) List() ([]models.Character, error) {
	var characters []models.Character
	err := s.db.Order("id ASC").Find(&characters).Error
	if characters == nil {
		characters = []models.Character{}
	}
	return characters, err
}

// Update saves the character's persona fields
func (s *CharacterStore) Update(character *models.Character) error {
	if err := s.db.Save(character).Error; err != nil {
		return err
	}
	s.watch.notify()
	return nil
}

// Delete removes a character and cascades to its messages. Deleting a
// preinstalled character returns ErrProtectedCharacter and changes nothing;
// deleting a missing id is a silent no-op.
func (s *CharacterStore) Delete(id uint) error {
	character, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if character == nil {
		return nil
	}
	if character.IsPreinstalled {
		return ErrProtectedCharacter
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("character_id = ?", id).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Character{}, id).Error
	})
	if err != nil {
		return err
	}

	s.watch.notify()
	s.history.notify(id)
	return nil
}

// Watch returns a notification channel that ticks on every character mutation.
// The current state is signalled immediately on subscribe.
func (s *CharacterStore) Watch() (<-chan struct{}, func()) {
	return s.watch.subscribe()
}
