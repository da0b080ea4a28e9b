package types

import (
	"time"
)

// Task types for chat sessions. Closed set.
const (
	TaskTypeQA           = "qa"
	TaskTypeVideoSummary = "video_summary"
	TaskTypeQuiz         = "quiz"
)

type ChatSession struct {
	ID       string `gorm:"primaryKey" json:"id"`
	UserID   string `gorm:"column:user_id" json:"user_id"`
	TaskType string `gorm:"column:task_type;not null" json:"task_type"`
	Title    string `gorm:"column:title" json:"title"`

	Messages []ChatMessage `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"messages,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ChatSession) TableName() string { return "chat_sessions" }
