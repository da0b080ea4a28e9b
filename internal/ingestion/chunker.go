package ingestion

import "strings"

// Segment is a transcribed span of audio with absolute timestamps.
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// TimedChunk is a retrieval unit built from consecutive segments.
type TimedChunk struct {
	StartTime float64
	EndTime   float64
	Text      string
}

const (
	DefaultChunkWindowSeconds  = 60.0
	DefaultChunkOverlapSeconds = 10.0
)

// ChunkSegments slices segments into windows of at most windowSize seconds
// with overlap seconds carried between consecutive chunks. A chunk closes
// when appending the next segment would push its span past the window; the
// next chunk starts at max(currentStart, currentEnd-overlap). A single
// segment longer than the window becomes its own chunk.
func ChunkSegments(segments []Segment, windowSize, overlap float64) []TimedChunk {
	if len(segments) == 0 {
		return []TimedChunk{}
	}
	if windowSize <= 0 {
		windowSize = DefaultChunkWindowSeconds
	}
	if overlap < 0 {
		overlap = 0
	}

	chunks := []TimedChunk{}
	currentStart := segments[0].Start
	currentEnd := currentStart
	var currentText []string

	for _, seg := range segments {
		if seg.End-currentStart > windowSize {
			if len(currentText) > 0 {
				chunks = append(chunks, TimedChunk{
					StartTime: currentStart,
					EndTime:   currentEnd,
					Text:      strings.Join(currentText, " "),
				})
			}
			overlapStart := currentEnd - overlap
			if overlapStart < currentStart {
				overlapStart = currentStart
			}
			currentText = nil
			currentStart = overlapStart
			currentEnd = overlapStart
		}
		currentText = append(currentText, seg.Text)
		currentEnd = seg.End
	}

	if len(currentText) > 0 {
		chunks = append(chunks, TimedChunk{
			StartTime: currentStart,
			EndTime:   currentEnd,
			Text:      strings.Join(currentText, " "),
		})
	}
	return chunks
}
