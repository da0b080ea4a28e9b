package types

import (
	"time"
)

// Chunk is one bounded time-span excerpt of a video transcript, the atomic
// unit of retrieval. VectorKey is the deterministic ID shared with the Qdrant
// point for this chunk; it joins the two stores and must satisfy
// end_time > start_time on every row.
type Chunk struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	VideoID   string  `gorm:"not null;index" json:"video_id"`
	Video     *Video  `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`
	StartTime float64 `gorm:"column:start_time;not null" json:"start_time"`
	EndTime   float64 `gorm:"column:end_time;not null" json:"end_time"`
	Text      string  `gorm:"type:text;not null" json:"text"`
	VectorKey string  `gorm:"column:vector_key;not null;uniqueIndex" json:"vector_key"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Chunk) TableName() string { return "chunks" }
