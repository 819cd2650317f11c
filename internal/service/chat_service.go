package service

import (
	"fmt"

	"brainjar/internal/apperr"
	"brainjar/internal/model"
	"brainjar/internal/repository"
)

// ChatService is the messaging collaborator. Every send consults the
// relationship gate before anything is persisted; non-friends get a
// forbidden error, never a stored message.
type ChatService interface {
	SendMessage(senderID, receiverID, content string) (*model.ChatMessage, error)
	GetConversation(userID, otherUserID string, limit, offset int) ([]*model.ChatMessage, error)
	MarkAsRead(userID, senderID string) error
	GetUnreadCount(userID string) (int64, error)
}

type chatService struct {
	chatRepo            repository.ChatRepository
	userRepo            repository.UserRepository
	relationshipService RelationshipService
}

func NewChatService(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	relationshipService RelationshipService,
) ChatService {
	return &chatService{
		chatRepo:            chatRepo,
		userRepo:            userRepo,
		relationshipService: relationshipService,
	}
}

func (s *chatService) SendMessage(senderID, receiverID, content string) (*model.ChatMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("message content cannot be empty: %w", apperr.ErrInvalidRequest)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot send a message to yourself: %w", apperr.ErrInvalidRequest)
	}
	if _, err := s.userRepo.FindByID(receiverID); err != nil {
		return nil, err
	}

	friends, err := s.relationshipService.AreFriends(senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, fmt.Errorf("you can only message friends: %w", apperr.ErrForbidden)
	}

	msg := &model.ChatMessage{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
	}
	if err := s.chatRepo.Create(msg); err != nil {
		return nil, err
	}
	return s.chatRepo.FindByID(msg.ID)
}

func (s *chatService) GetConversation(userID, otherUserID string, limit, offset int) ([]*model.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.chatRepo.GetConversation(userID, otherUserID, limit, offset)
}

func (s *chatService) MarkAsRead(userID, senderID string) error {
	return s.chatRepo.MarkAsRead(userID, senderID)
}

func (s *chatService) GetUnreadCount(userID string) (int64, error) {
	return s.chatRepo.GetUnreadCount(userID)
}
