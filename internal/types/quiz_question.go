package types

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz question types.
const (
	QuestionTypeMCQ         = "mcq"
	QuestionTypeShortAnswer = "short_answer"
)

// QuizQuestion is created in batch at quiz-generation time and read-only
// thereafter. VideoID is nulled if the source video is deleted.
type QuizQuestion struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID     string         `gorm:"column:session_id;not null;index" json:"session_id"`
	VideoID       *string        `gorm:"column:video_id" json:"video_id,omitempty"`
	Video         *Video         `gorm:"constraint:OnDelete:SET NULL;foreignKey:VideoID;references:ID" json:"video,omitempty"`
	QuestionType  string         `gorm:"column:question_type;not null" json:"question_type"`
	Question      string         `gorm:"type:text;not null" json:"question"`
	Options       datatypes.JSON `gorm:"type:jsonb" json:"options,omitempty"`
	CorrectAnswer string         `gorm:"column:correct_answer;not null" json:"correct_answer"`
	Explanation   string         `gorm:"type:text" json:"explanation,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (QuizQuestion) TableName() string { return "quiz_questions" }
