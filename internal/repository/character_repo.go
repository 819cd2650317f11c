package repository

import (
	"errors"
	"fmt"

	"brainjar/internal/apperr"
	"brainjar/internal/model"

	"gorm.io/gorm"
)

type CharacterRepository interface {
	FindByUserID(userID string) (*model.Character, error)
	Upsert(character *model.Character) error
	UpdateAvatarURL(userID, avatarURL string) error
}

type characterRepository struct {
	db *gorm.DB
}

func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepository{db: db}
}

func (r *characterRepository) FindByUserID(userID string) (*model.Character, error) {
	var character model.Character
	err := r.db.Where("user_id = ?", userID).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("character for user %s: %w", userID, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &character, nil
}

// Upsert creates the user's character or updates the existing one
func (r *characterRepository) Upsert(character *model.Character) error {
	var existing model.Character
	err := r.db.Where("user_id = ?", character.UserID).First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.db.Create(character).Error
		}
		return err
	}

	character.ID = existing.ID
	character.CreatedAt = existing.CreatedAt
	return r.db.Save(character).Error
}

func (r *characterRepository) UpdateAvatarURL(userID, avatarURL string) error {
	result := r.db.Model(&model.Character{}).
		Where("user_id = ?", userID).
		Update("avatar_url", avatarURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("character for user %s: %w", userID, apperr.ErrNotFound)
	}
	return nil
}
