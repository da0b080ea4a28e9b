package types

import (
	"time"
)

// Video is the canonical record for one ingested YouTube video. The primary
// key is the external YouTube video ID, so re-ingesting a URL updates the same
// row in place.
type Video struct {
	ID             string  `gorm:"primaryKey" json:"id"`
	Title          string  `gorm:"not null" json:"title"`
	URL            string  `gorm:"not null;uniqueIndex" json:"url"`
	Duration       float64 `gorm:"column:duration" json:"duration"`
	TranscriptPath string  `gorm:"column:transcript_path" json:"transcript_path,omitempty"`

	Chunks []Chunk `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"chunks,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Video) TableName() string { return "videos" }
