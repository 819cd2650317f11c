package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"brainjar/internal/apperr"
	"brainjar/internal/model"
	"brainjar/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository is the exclusive owner of relationship records.
// Every mutation runs inside a single transaction, and the unique index on
// pair_key backs the one-record-per-pair invariant against concurrent writers.
type RelationshipRepository interface {
	FindByPairKey(pairKey string) (*model.Relationship, error)
	Insert(requesterID, targetID string) (*model.Relationship, error)
	Transition(pairKey, actingUserID, newStatus string) (*model.Relationship, error)
	Remove(pairKey, actingUserID string) error
	ListAccepted(userID string) ([]*model.Relationship, error)
	ListIncomingPending(userID string) ([]*model.Relationship, error)
	ListOutgoingPending(userID string) ([]*model.Relationship, error)
	RelatedUserIDs(userID string) ([]string, error)
}

type relationshipRepository struct {
	db    *gorm.DB
	redis *util.RedisClient
}

const (
	relationshipUserCachePrefix = "relationship:user:"
	relationshipCacheExpiration = 15 * time.Minute
)

func NewRelationshipRepository(db *gorm.DB, redis *util.RedisClient) RelationshipRepository {
	return &relationshipRepository{
		db:    db,
		redis: redis,
	}
}

// FindByPairKey returns the single record for a pair, or apperr.ErrNotFound.
// The messaging gate rides on this lookup and must see the latest committed
// transition, so the row is always read from the database, never a cache.
func (r *relationshipRepository) FindByPairKey(pairKey string) (*model.Relationship, error) {
	var rel model.Relationship
	err := r.db.Preload("Requester").Preload("Target").
		Where("pair_key = ?", pairKey).First(&rel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no relationship for pair: %w", apperr.ErrNotFound)
		}
		return nil, err
	}

	return &rel, nil
}

// Insert creates a fresh pending record for the pair. A pending or accepted
// record already occupying the pair is a conflict; a declined record is
// superseded atomically, so the previously declined party can re-request.
func (r *relationshipRepository) Insert(requesterID, targetID string) (*model.Relationship, error) {
	if requesterID == targetID {
		return nil, fmt.Errorf("cannot create a relationship with yourself: %w", apperr.ErrInvalidRequest)
	}

	pairKey := model.PairKey(requesterID, targetID)
	rel := &model.Relationship{
		PairKey:     pairKey,
		RequesterID: requesterID,
		TargetID:    targetID,
		Status:      model.RelationshipStatusPending,
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing model.Relationship
		findErr := tx.Where("pair_key = ?", pairKey).First(&existing).Error
		if findErr == nil {
			switch existing.Status {
			case model.RelationshipStatusPending, model.RelationshipStatusAccepted:
				return fmt.Errorf("relationship already exists for pair: %w", apperr.ErrConflict)
			case model.RelationshipStatusDeclined:
				// Supersede: delete the declined record in the same
				// transaction so exactly one record per pair ever exists.
				if err := tx.Delete(&existing).Error; err != nil {
					return err
				}
			}
		} else if !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}

		return tx.Create(rel).Error
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			// Lost a concurrent insert race for the same pair
			return nil, fmt.Errorf("relationship already exists for pair: %w", apperr.ErrConflict)
		}
		return nil, err
	}

	r.invalidatePair(requesterID, targetID)

	return r.FindByPairKey(pairKey)
}

// Transition moves a pending record to accepted or declined. Only the target
// of the request may transition it, and only while it is pending.
func (r *relationshipRepository) Transition(pairKey, actingUserID, newStatus string) (*model.Relationship, error) {
	var rel model.Relationship
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the row so concurrent responds serialize: the loser re-reads
		// the committed status and fails the pending check instead of
		// overwriting the winner's transition.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pair_key = ?", pairKey).First(&rel).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no relationship for pair: %w", apperr.ErrNotFound)
			}
			return err
		}

		if rel.TargetID != actingUserID {
			return fmt.Errorf("only the request target may respond: %w", apperr.ErrForbidden)
		}
		if rel.Status != model.RelationshipStatusPending {
			return fmt.Errorf("request is not pending: %w", apperr.ErrForbidden)
		}

		rel.Status = newStatus
		return tx.Save(&rel).Error
	})
	if err != nil {
		return nil, err
	}

	r.invalidatePair(rel.RequesterID, rel.TargetID)

	return r.FindByPairKey(pairKey)
}

// Remove deletes an accepted record. Either participant may remove it; the
// pair returns to "no relationship".
func (r *relationshipRepository) Remove(pairKey, actingUserID string) error {
	var rel model.Relationship
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Same locking discipline as Transition: of two concurrent removes,
		// exactly one deletes and the other reports not found.
		findErr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pair_key = ? AND status = ?", pairKey, model.RelationshipStatusAccepted).
			First(&rel).Error
		if findErr != nil {
			if errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no accepted relationship for pair: %w", apperr.ErrNotFound)
			}
			return findErr
		}

		if !rel.Involves(actingUserID) {
			return fmt.Errorf("not a participant of this relationship: %w", apperr.ErrForbidden)
		}

		return tx.Delete(&rel).Error
	})
	if err != nil {
		return err
	}

	r.invalidatePair(rel.RequesterID, rel.TargetID)

	return nil
}

// ListAccepted returns a user's friendships, most recent first
func (r *relationshipRepository) ListAccepted(userID string) ([]*model.Relationship, error) {
	return r.listCached(userID, "accepted", func() ([]*model.Relationship, error) {
		var rels []*model.Relationship
		err := r.db.Preload("Requester").Preload("Target").
			Where("(requester_id = ? OR target_id = ?) AND status = ?",
				userID, userID, model.RelationshipStatusAccepted).
			Order("created_at DESC").
			Find(&rels).Error
		return rels, err
	})
}

// ListIncomingPending returns pending requests where the user is the target
func (r *relationshipRepository) ListIncomingPending(userID string) ([]*model.Relationship, error) {
	return r.listCached(userID, "incoming", func() ([]*model.Relationship, error) {
		var rels []*model.Relationship
		err := r.db.Preload("Requester").Preload("Target").
			Where("target_id = ? AND status = ?", userID, model.RelationshipStatusPending).
			Order("created_at DESC").
			Find(&rels).Error
		return rels, err
	})
}

// ListOutgoingPending returns pending requests the user has sent
func (r *relationshipRepository) ListOutgoingPending(userID string) ([]*model.Relationship, error) {
	return r.listCached(userID, "outgoing", func() ([]*model.Relationship, error) {
		var rels []*model.Relationship
		err := r.db.Preload("Requester").Preload("Target").
			Where("requester_id = ? AND status = ?", userID, model.RelationshipStatusPending).
			Order("created_at DESC").
			Find(&rels).Error
		return rels, err
	})
}

// RelatedUserIDs returns the counterpart ids of every record involving the
// user, in any status. Used to exclude already-related users from suggestions.
func (r *relationshipRepository) RelatedUserIDs(userID string) ([]string, error) {
	var rels []model.Relationship
	err := r.db.Select("requester_id", "target_id").
		Where("requester_id = ? OR target_id = ?", userID, userID).
		Find(&rels).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(rels))
	for _, rel := range rels {
		ids = append(ids, rel.OtherParty(userID))
	}
	return ids, nil
}

// isDuplicateKeyError recognizes a unique constraint violation on pair_key
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}

// Cache helpers

func (r *relationshipRepository) listCached(userID, kind string, load func() ([]*model.Relationship, error)) ([]*model.Relationship, error) {
	key := relationshipUserCachePrefix + userID + ":" + kind

	if r.redis != nil {
		if cached, err := r.getListFromCache(key); err == nil && cached != nil {
			return cached, nil
		}
	}

	rels, err := load()
	if err != nil {
		return nil, err
	}

	if r.redis != nil {
		r.redis.Set(key, rels, relationshipCacheExpiration)
	}

	return rels, nil
}

func (r *relationshipRepository) getListFromCache(key string) ([]*model.Relationship, error) {
	cached, err := r.redis.Get(key)
	if err != nil {
		return nil, err
	}

	var rels []*model.Relationship
	if err := json.Unmarshal([]byte(cached), &rels); err != nil {
		return nil, err
	}
	return rels, nil
}

// invalidatePair drops every list cache of both participants after a mutation
func (r *relationshipRepository) invalidatePair(userA, userB string) {
	if r.redis == nil {
		return
	}
	r.redis.DeletePattern(relationshipUserCachePrefix + userA + ":*")
	r.redis.DeletePattern(relationshipUserCachePrefix + userB + ":*")
}
