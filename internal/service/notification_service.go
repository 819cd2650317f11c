package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"brainjar/internal/model"
	"brainjar/internal/repository"
	"brainjar/internal/util"
)

type NotificationService interface {
	SendFriendRequestNotification(receiverID, senderID, senderName, relationshipID string) error
	SendFriendAcceptedNotification(receiverID, senderID, senderName, relationshipID string) error
	SendFriendDeclinedNotification(receiverID, senderID, senderName, relationshipID string) error
	GetNotifications(userID string, limit, offset int) ([]*model.Notification, error)
	GetUnreadCount(userID string) (int64, error)
	MarkAsRead(notificationID, userID string) error
	MarkAllAsRead(userID string) error
	DeleteNotification(notificationID, userID string) error
	SetWSHub(hub interface {
		BroadcastToUser(string, map[string]interface{})
	})
}

type notificationService struct {
	notifRepo repository.NotificationRepository
	rabbitMQ  *util.RabbitMQClient
	wsHub     interface {
		BroadcastToUser(string, map[string]interface{})
	}
}

// NotificationMessage is the payload published to RabbitMQ
type NotificationMessage struct {
	UserID    string                 `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	NotificationQueueName  = "notification_queue"
	NotificationExchange   = "notification_exchange"
	NotificationRoutingKey = "notification"
)

func NewNotificationService(notifRepo repository.NotificationRepository, rabbitMQ *util.RabbitMQClient) NotificationService {
	return &notificationService{
		notifRepo: notifRepo,
		rabbitMQ:  rabbitMQ,
	}
}

// SetWSHub sets the WebSocket hub for realtime delivery
func (s *notificationService) SetWSHub(hub interface {
	BroadcastToUser(string, map[string]interface{})
}) {
	s.wsHub = hub
}

// sendNotification stores the notification and fans it out via RabbitMQ
func (s *notificationService) sendNotification(userID, senderID, notifType, title, message, relationshipID string) error {
	notification := &model.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
	}
	if senderID != "" {
		notification.SenderID = &senderID
	}
	if relationshipID != "" {
		notification.TargetID = &relationshipID
	}

	if err := s.notifRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	if s.rabbitMQ != nil {
		msg := NotificationMessage{
			UserID:  userID,
			Type:    notifType,
			Title:   title,
			Message: message,
			Data: map[string]interface{}{
				"notification_id": notification.ID,
				"sender_id":       senderID,
				"relationship_id": relationshipID,
			},
			Timestamp: time.Now(),
		}

		msgJSON, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Failed to marshal notification message: %v", err)
			return err
		}

		if err := s.rabbitMQ.Publish(NotificationExchange, NotificationRoutingKey, msgJSON); err != nil {
			// Notification is already persisted; delivery is best effort
			log.Printf("Failed to publish notification to RabbitMQ: %v", err)
		}
	} else if s.wsHub != nil {
		// No broker: push directly to connected clients
		s.wsHub.BroadcastToUser(userID, map[string]interface{}{
			"id":         notification.ID,
			"user_id":    notification.UserID,
			"type":       notification.Type,
			"title":      notification.Title,
			"message":    notification.Message,
			"sender_id":  senderID,
			"target_id":  relationshipID,
			"is_read":    false,
			"created_at": notification.CreatedAt.Format(time.RFC3339),
		})
	}

	return nil
}

func (s *notificationService) SendFriendRequestNotification(receiverID, senderID, senderName, relationshipID string) error {
	return s.sendNotification(
		receiverID,
		senderID,
		model.NotificationTypeFriendRequest,
		"New friend request",
		fmt.Sprintf("%s sent you a friend request", senderName),
		relationshipID,
	)
}

func (s *notificationService) SendFriendAcceptedNotification(receiverID, senderID, senderName, relationshipID string) error {
	return s.sendNotification(
		receiverID,
		senderID,
		model.NotificationTypeFriendAccepted,
		"Friend request accepted",
		fmt.Sprintf("%s accepted your friend request", senderName),
		relationshipID,
	)
}

func (s *notificationService) SendFriendDeclinedNotification(receiverID, senderID, senderName, relationshipID string) error {
	return s.sendNotification(
		receiverID,
		senderID,
		model.NotificationTypeFriendDeclined,
		"Friend request declined",
		fmt.Sprintf("%s declined your friend request", senderName),
		relationshipID,
	)
}

func (s *notificationService) GetNotifications(userID string, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.notifRepo.FindByUserID(userID, limit, offset)
}

func (s *notificationService) GetUnreadCount(userID string) (int64, error) {
	return s.notifRepo.GetUnreadCount(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID string) error {
	return s.notifRepo.MarkAsRead(notificationID, userID)
}

func (s *notificationService) MarkAllAsRead(userID string) error {
	return s.notifRepo.MarkAllAsRead(userID)
}

func (s *notificationService) DeleteNotification(notificationID, userID string) error {
	return s.notifRepo.Delete(notificationID, userID)
}
