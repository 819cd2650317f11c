package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Character is a user's public persona: avatar, bio and the personality
// traits the suggestion ranker compares.
type Character struct {
	ID                string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID            string    `gorm:"type:uuid;not null;uniqueIndex;references:users(id)" json:"user_id"`
	Name              *string   `gorm:"type:varchar(100)" json:"name,omitempty"`
	AvatarURL         *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	Bio               *string   `gorm:"type:text" json:"bio,omitempty"`
	PersonalityTraits string    `gorm:"type:jsonb" json:"personality_traits,omitempty"` // Array of trait names stored as JSON
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

// BeforeCreate hook to generate UUID
func (c *Character) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name
func (Character) TableName() string {
	return "characters"
}

// GetPersonalityTraits returns PersonalityTraits as a slice of strings
func (c *Character) GetPersonalityTraits() []string {
	if c.PersonalityTraits == "" || c.PersonalityTraits == "[]" {
		return []string{}
	}
	var traits []string
	if err := json.Unmarshal([]byte(c.PersonalityTraits), &traits); err != nil {
		return []string{}
	}
	return traits
}

// SetPersonalityTraits sets PersonalityTraits from a slice of strings
func (c *Character) SetPersonalityTraits(traits []string) error {
	data, err := json.Marshal(traits)
	if err != nil {
		return err
	}
	c.PersonalityTraits = string(data)
	return nil
}
