package ingestion

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
)

// Transcript is the full text plus its timestamped segments.
type Transcript struct {
	Text     string
	Segments []Segment
}

// Transcriber converts an audio file into a timestamped transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Transcript, error)
}

type whisperTranscriber struct {
	log    *logger.Logger
	client *openai.Client
	model  string
}

// NewTranscriber uses the Whisper endpoint of an OpenAI-compatible API.
// WHISPER_BASE_URL defaults to Groq, whose whisper-large-v3-turbo hosting
// keeps transcription fast and cheap.
func NewTranscriber(log *logger.Logger) (Transcriber, error) {
	apiKey := os.Getenv("WHISPER_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("LLM_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing WHISPER_API_KEY")
	}

	model := os.Getenv("WHISPER_MODEL")
	if model == "" {
		model = "whisper-large-v3-turbo"
	}

	cfg := openai.DefaultConfig(apiKey)
	baseURL := strings.TrimRight(os.Getenv("WHISPER_BASE_URL"), "/")
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai"
	}
	cfg.BaseURL = baseURL + "/v1"

	return &whisperTranscriber{
		log:    log.With("service", "Transcriber"),
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// wordGapSeconds starts a new segment whenever consecutive words are
// separated by silence longer than this.
const wordGapSeconds = 2.0

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath string) (*Transcript, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		return nil, stepErr(StepErrorTranscriptionFailed, err)
	}

	segments := segmentsFromWords(resp.Words)
	if len(segments) == 0 {
		for _, s := range resp.Segments {
			text := strings.TrimSpace(s.Text)
			if text == "" {
				continue
			}
			segments = append(segments, Segment{Start: s.Start, End: s.End, Text: text})
		}
	}
	if len(segments) == 0 {
		segments = []Segment{{Start: 0, End: 0, Text: resp.Text}}
	}

	return &Transcript{Text: resp.Text, Segments: segments}, nil
}

type transcriptionWord = struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// segmentsFromWords groups word timestamps into segments, splitting on
// silences longer than wordGapSeconds.
func segmentsFromWords(words []transcriptionWord) []Segment {
	if len(words) == 0 {
		return nil
	}

	var segments []Segment
	current := Segment{
		Start: words[0].Start,
		End:   words[0].End,
		Text:  strings.TrimSpace(words[0].Word),
	}
	for _, w := range words[1:] {
		if w.Start-current.End > wordGapSeconds {
			segments = append(segments, current)
			current = Segment{Start: w.Start, End: w.End, Text: strings.TrimSpace(w.Word)}
			continue
		}
		current.End = w.End
		current.Text += " " + strings.TrimSpace(w.Word)
	}
	return append(segments, current)
}
