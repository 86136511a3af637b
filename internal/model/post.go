package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog post. AuthorID is set once at creation and never reassigned.
type Post struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Summary   string    `json:"summary" gorm:"type:text"`
	Content   string    `json:"content" gorm:"type:longtext"`
	Cover     string    `json:"cover" gorm:"size:512"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Author *User `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
}

// BeforeCreate sets UUID before creating the record.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// OwnerID returns the author of record.
func (p *Post) OwnerID() uuid.UUID {
	return p.AuthorID
}
