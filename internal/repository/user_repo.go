package repository

import (
	"errors"
	"fmt"

	"brainjar/internal/apperr"
	"brainjar/internal/model"

	"gorm.io/gorm"
)

// UserRepository is the read side of the user directory. The engine never
// writes user rows; sign-up and stats upkeep belong to external collaborators.
type UserRepository interface {
	FindByID(id string) (*model.User, error)
	Exists(id string) (bool, error)
	SearchByUsername(keyword string, excludeID string, limit int) ([]*model.User, error)
	ListCandidates(subjectID string, excludeIDs []string, limit int) ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(id string) (*model.User, error) {
	var user model.User
	err := r.db.Preload("Character").Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&model.User{}).Where("id = ?", id).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) SearchByUsername(keyword string, excludeID string, limit int) ([]*model.User, error) {
	var users []*model.User
	err := r.db.Preload("Character").
		Where("id != ? AND LOWER(username) LIKE ?", excludeID, "%"+keyword+"%").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	return users, err
}

// ListCandidates returns the suggestion pool: every user except the subject
// and the given already-related ids, with characters preloaded for trait
// comparison. The pool is ordered by activity so a capped fetch still sees
// the strongest candidates.
func (r *userRepository) ListCandidates(subjectID string, excludeIDs []string, limit int) ([]*model.User, error) {
	query := r.db.Preload("Character").Where("id != ?", subjectID)
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	var users []*model.User
	err := query.
		Order("problems_solved DESC, current_streak DESC").
		Limit(limit).
		Find(&users).Error
	return users, err
}
