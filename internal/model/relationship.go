package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Relationship is the single authoritative record for a pair of users.
// PairKey is order-independent, so (A,B) and (B,A) hit the same row and the
// unique index makes "at most one relationship per pair" a storage guarantee.
// RequesterID and TargetID keep the directional roles from creation time:
// only the target may accept or decline.
type Relationship struct {
	ID          string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	PairKey     string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"-"`
	RequesterID string    `gorm:"type:uuid;not null;index" json:"requester_id"`
	TargetID    string    `gorm:"type:uuid;not null;index" json:"target_id"`
	Status      string    `gorm:"type:varchar(20);default:'pending';not null" json:"status"` // pending, accepted, declined
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID;references:ID" json:"requester,omitempty"`
	Target    User `gorm:"foreignKey:TargetID;references:ID" json:"target,omitempty"`
}

// BeforeCreate hook to generate UUID and derive the pair key
func (r *Relationship) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.PairKey == "" {
		r.PairKey = PairKey(r.RequesterID, r.TargetID)
	}
	return nil
}

// TableName specifies the table name
func (Relationship) TableName() string {
	return "relationships"
}

// Relationship status constants
const (
	RelationshipStatusPending  = "pending"
	RelationshipStatusAccepted = "accepted"
	RelationshipStatusDeclined = "declined"
)

// PairKey returns the canonical key for two user ids: the ids sorted and
// joined, so both orderings map to the same record.
func PairKey(userA, userB string) string {
	if strings.Compare(userA, userB) > 0 {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// Involves reports whether the given user is one of the two participants.
func (r *Relationship) Involves(userID string) bool {
	return r.RequesterID == userID || r.TargetID == userID
}

// OtherParty returns the participant that is not the given user.
func (r *Relationship) OtherParty(userID string) string {
	if r.RequesterID == userID {
		return r.TargetID
	}
	return r.RequesterID
}
