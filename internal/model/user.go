package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the identity record owned by the user directory. The engine reads
// the activity stats for suggestion ranking and never writes them.
type User struct {
	ID             string     `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Username       string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Email          string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	ProblemsSolved int        `gorm:"default:0" json:"problems_solved"`
	CurrentStreak  int        `gorm:"default:0" json:"current_streak"`
	LastActiveAt   *time.Time `gorm:"type:timestamp" json:"last_active_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Character *Character `gorm:"foreignKey:UserID;references:ID" json:"character,omitempty"`
}

// BeforeCreate hook to generate UUID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}
