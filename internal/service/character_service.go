package service

import (
	"context"
	"fmt"
	"mime/multipart"

	"brainjar/internal/apperr"
	"brainjar/internal/model"
	"brainjar/internal/repository"
	"brainjar/internal/util"
)

// CharacterService manages the user's persona: the trait list the ranker
// compares, plus name, bio and avatar.
type CharacterService interface {
	GetByUserID(userID string) (*model.Character, error)
	Save(userID string, name, bio *string, traits []string) (*model.Character, error)
	UploadAvatar(ctx context.Context, userID string, file multipart.File) (string, error)
}

type characterService struct {
	characterRepo repository.CharacterRepository
	userRepo      repository.UserRepository
	cloudinary    *util.CloudinaryClient
}

func NewCharacterService(
	characterRepo repository.CharacterRepository,
	userRepo repository.UserRepository,
	cloudinary *util.CloudinaryClient,
) CharacterService {
	return &characterService{
		characterRepo: characterRepo,
		userRepo:      userRepo,
		cloudinary:    cloudinary,
	}
}

func (s *characterService) GetByUserID(userID string) (*model.Character, error) {
	return s.characterRepo.FindByUserID(userID)
}

func (s *characterService) Save(userID string, name, bio *string, traits []string) (*model.Character, error) {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		return nil, err
	}

	character := &model.Character{
		UserID: userID,
		Name:   name,
		Bio:    bio,
	}
	if err := character.SetPersonalityTraits(traits); err != nil {
		return nil, fmt.Errorf("invalid traits: %w", apperr.ErrInvalidRequest)
	}

	if err := s.characterRepo.Upsert(character); err != nil {
		return nil, err
	}
	return s.characterRepo.FindByUserID(userID)
}

func (s *characterService) UploadAvatar(ctx context.Context, userID string, file multipart.File) (string, error) {
	if s.cloudinary == nil {
		return "", fmt.Errorf("avatar uploads are not configured: %w", apperr.ErrInvalidRequest)
	}

	url, err := s.cloudinary.UploadAvatar(ctx, file, userID)
	if err != nil {
		return "", err
	}

	if err := s.characterRepo.UpdateAvatarURL(userID, url); err != nil {
		return "", err
	}
	return url, nil
}
