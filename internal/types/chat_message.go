package types

import (
	"time"

	"gorm.io/datatypes"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one conversation turn. Rows are immutable once created;
// CreatedAt ordering is the canonical conversation order. Sources holds the
// ordered citation list as JSONB.
type ChatMessage struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string         `gorm:"column:session_id;not null;index" json:"session_id"`
	Session   *ChatSession   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"session,omitempty"`
	Role      string         `gorm:"not null" json:"role"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Sources   datatypes.JSON `gorm:"type:jsonb" json:"sources,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
