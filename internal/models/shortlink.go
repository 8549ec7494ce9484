package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortLink maps a compact token to a destination URL. Tokens are
// generated lazily on the first get-link request for a recipe and are
// immutable afterwards.
type ShortLink struct {
	ID        uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	LongURL   string    `gorm:"size:255;not null;uniqueIndex" json:"long_url"`
	Token     string    `gorm:"size:16;not null;uniqueIndex" json:"token"`
}

func (ShortLink) TableName() string {
	return "short_links"
}

func (l *ShortLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
