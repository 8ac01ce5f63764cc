package store

import (
	"errors"

	"aipocket/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting keys
const (
	SettingAPIKey        = "gemini_api_key"
	SettingFirstRunStamp = "is_first_launch_completed_v1"
	settingTrueValue     = "true"
)

// SettingStore persists scoped key/value application settings
type SettingStore struct {
	db *gorm.DB
}

// NewSettingStore creates a setting store
func NewSettingStore(db *gorm.DB) *SettingStore {
	return &SettingStore{db: db}
}

// Get returns the value for key and whether it was present
func (s *SettingStore) Get(key string) (string, bool, error) {
	var setting models.Setting
	err := s.db.First(&setting, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set upserts the value for key
func (s *SettingStore) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// GetBool reads a boolean flag, absent meaning false
func (s *SettingStore) GetBool(key string) (bool, error) {
	value, ok, err := s.Get(key)
	if err != nil {
		return false, err
	}
	return ok && value == settingTrueValue, nil
}

// SetBool stores a boolean flag
func (s *SettingStore) SetBool(key string, value bool) error {
	v := "false"
	if value {
		v = settingTrueValue
	}
	return s.Set(key, v)
}
