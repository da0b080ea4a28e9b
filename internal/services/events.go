package services

import "github.com/GenyoNguyen/YouTubeLM/internal/types"

// EventType enumerates the streaming protocol events. Every generation task
// ends with exactly one terminal event: done, cached or error.
type EventType string

const (
	EventMetadata EventType = "metadata"
	EventToken    EventType = "token"
	EventSources  EventType = "sources"
	EventCached   EventType = "cached"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// VideoInfo is the metadata block emitted before summary tokens.
type VideoInfo struct {
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	VideoURL        string  `json:"video_url"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	NumChunks       int     `json:"num_chunks"`
}

// StreamEvent is one frame of the generation stream. Fields are populated
// per event type; zero fields are omitted from the wire encoding.
type StreamEvent struct {
	Type      EventType              `json:"type"`
	Content   string                 `json:"content,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	VideoID   string                 `json:"video_id,omitempty"`
	VideoInfo *VideoInfo             `json:"video_info,omitempty"`
	Sources   []types.SourceCitation `json:"sources,omitempty"`
	Quiz      *QuizPayload           `json:"quiz,omitempty"`
}

func tokenEvent(content string) StreamEvent {
	return StreamEvent{Type: EventToken, Content: content}
}

func errorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Content: message}
}
