package repository

import (
	"brainjar/internal/model"

	"gorm.io/gorm"
)

type ChatRepository interface {
	Create(message *model.ChatMessage) error
	FindByID(id string) (*model.ChatMessage, error)
	GetConversation(userID, otherUserID string, limit, offset int) ([]*model.ChatMessage, error)
	MarkAsRead(userID, senderID string) error
	GetUnreadCount(userID string) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(message *model.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *chatRepository) FindByID(id string) (*model.ChatMessage, error) {
	var message model.ChatMessage
	err := r.db.Preload("Sender").Preload("Receiver").
		Where("id = ?", id).First(&message).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *chatRepository) GetConversation(userID, otherUserID string, limit, offset int) ([]*model.ChatMessage, error) {
	var messages []*model.ChatMessage
	err := r.db.Preload("Sender").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherUserID, otherUserID, userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}

func (r *chatRepository) MarkAsRead(userID, senderID string) error {
	return r.db.Model(&model.ChatMessage{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, senderID, false).
		Update("is_read", true).Error
}

func (r *chatRepository) GetUnreadCount(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.ChatMessage{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}
