package service

import (
	"errors"
	"fmt"

	"brainjar/internal/apperr"
	"brainjar/internal/model"
	"brainjar/internal/repository"
)

// RelationshipService applies the lifecycle rules on top of the store:
//
//	(no record) --send--> pending --accept--> accepted --remove--> (no record)
//	             pending --decline--> declined --send (either party)--> pending
//
// Declined is the only status a fresh request may supersede.
type RelationshipService interface {
	SendRequest(requesterID, targetID string) (*model.Relationship, error)
	Respond(actingUserID, otherUserID string, accept bool) (*model.Relationship, error)
	RemoveFriend(actingUserID, otherUserID string) error
	ListFriends(userID string) ([]*model.Relationship, error)
	ListIncomingPending(userID string) ([]*model.Relationship, error)
	ListOutgoingPending(userID string) ([]*model.Relationship, error)
	AreFriends(userA, userB string) (bool, error)
}

type relationshipService struct {
	relationshipRepo repository.RelationshipRepository
	userRepo         repository.UserRepository
	notifService     NotificationService
}

func NewRelationshipService(
	relationshipRepo repository.RelationshipRepository,
	userRepo repository.UserRepository,
	notifService NotificationService,
) RelationshipService {
	return &relationshipService{
		relationshipRepo: relationshipRepo,
		userRepo:         userRepo,
		notifService:     notifService,
	}
}

// SendRequest creates a pending request from requester to target
func (s *relationshipService) SendRequest(requesterID, targetID string) (*model.Relationship, error) {
	if requesterID == targetID {
		return nil, fmt.Errorf("cannot send a friend request to yourself: %w", apperr.ErrInvalidRequest)
	}

	requester, err := s.userRepo.FindByID(requesterID)
	if err != nil {
		return nil, err
	}
	exists, err := s.userRepo.Exists(targetID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user %s: %w", targetID, apperr.ErrNotFound)
	}

	rel, err := s.relationshipRepo.Insert(requesterID, targetID)
	if err != nil {
		return nil, err
	}

	if s.notifService != nil {
		go s.notifService.SendFriendRequestNotification(targetID, requesterID, requester.Username, rel.ID)
	}

	return rel, nil
}

// Respond accepts or declines the pending request between the acting user and
// the counterpart. Only the request target may respond; the store enforces it.
func (s *relationshipService) Respond(actingUserID, otherUserID string, accept bool) (*model.Relationship, error) {
	newStatus := model.RelationshipStatusDeclined
	if accept {
		newStatus = model.RelationshipStatusAccepted
	}

	pairKey := model.PairKey(actingUserID, otherUserID)
	rel, err := s.relationshipRepo.Transition(pairKey, actingUserID, newStatus)
	if err != nil {
		return nil, err
	}

	if s.notifService != nil {
		responder, userErr := s.userRepo.FindByID(actingUserID)
		if userErr == nil {
			if accept {
				go s.notifService.SendFriendAcceptedNotification(otherUserID, actingUserID, responder.Username, rel.ID)
			} else {
				go s.notifService.SendFriendDeclinedNotification(otherUserID, actingUserID, responder.Username, rel.ID)
			}
		}
	}

	return rel, nil
}

// RemoveFriend dissolves an accepted friendship. Either participant may do
// it; a missing record surfaces as not found, never retried.
func (s *relationshipService) RemoveFriend(actingUserID, otherUserID string) error {
	pairKey := model.PairKey(actingUserID, otherUserID)
	return s.relationshipRepo.Remove(pairKey, actingUserID)
}

// ListFriends returns the user's accepted relationships, most recent first
func (s *relationshipService) ListFriends(userID string) ([]*model.Relationship, error) {
	return s.relationshipRepo.ListAccepted(userID)
}

// ListIncomingPending returns pending requests awaiting the user's response
func (s *relationshipService) ListIncomingPending(userID string) ([]*model.Relationship, error) {
	return s.relationshipRepo.ListIncomingPending(userID)
}

// ListOutgoingPending returns pending requests the user has sent
func (s *relationshipService) ListOutgoingPending(userID string) ([]*model.Relationship, error) {
	return s.relationshipRepo.ListOutgoingPending(userID)
}

// AreFriends is the messaging gate: true iff the pair's record is accepted.
// Symmetric in its arguments because the lookup goes through the pair key.
func (s *relationshipService) AreFriends(userA, userB string) (bool, error) {
	rel, err := s.relationshipRepo.FindByPairKey(model.PairKey(userA, userB))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rel.Status == model.RelationshipStatusAccepted, nil
}
