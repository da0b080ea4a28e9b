package rag

import "sort"

const (
	SignalVector  = "vector"
	SignalLexical = "bm25"
)

// lexicalScoreCeiling is the empirical ts_rank ceiling used to map unbounded
// lexical scores into the same [0,1] space as cosine similarity.
const lexicalScoreCeiling = 10.0

// Evidence is one retrieved chunk with its provenance and scores.
type Evidence struct {
	VideoID    string  `json:"video_id"`
	VideoTitle string  `json:"video_title"`
	VideoURL   string  `json:"video_url"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	VectorKey  string  `json:"vector_key"`

	RawScore        float64 `json:"raw_score"`
	Signal          string  `json:"signal"`
	NormalizedScore float64 `json:"normalized_score"`

	// Set by the reranker only.
	RerankScore   float64 `json:"rerank_score,omitempty"`
	OriginalScore float64 `json:"original_score,omitempty"`
}

func normalizeScore(signal string, raw float64) float64 {
	if signal == SignalVector {
		return raw
	}
	if raw <= 0 {
		return 0
	}
	normalized := raw / lexicalScoreCeiling
	if normalized > 1 {
		return 1
	}
	return normalized
}

func allowedVideo(videoIDs []string, videoID string) bool {
	if len(videoIDs) == 0 {
		return true
	}
	for _, id := range videoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// Fuse merges the two retrieval legs into one ranked list. Vector hits are
// inserted first and win deduplication by vector key; scores are normalized
// into [0,1]; the final sort is stable so ties keep insertion order.
func Fuse(vectorHits, lexicalHits []Evidence, videoIDs []string, topK int) []Evidence {
	seen := make(map[string]bool, len(vectorHits)+len(lexicalHits))
	fused := make([]Evidence, 0, len(vectorHits)+len(lexicalHits))

	appendHits := func(hits []Evidence) {
		for _, h := range hits {
			if !allowedVideo(videoIDs, h.VideoID) {
				continue
			}
			if h.VectorKey == "" || seen[h.VectorKey] {
				continue
			}
			seen[h.VectorKey] = true
			h.NormalizedScore = normalizeScore(h.Signal, h.RawScore)
			fused = append(fused, h)
		}
	}
	appendHits(vectorHits)
	appendHits(lexicalHits)

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].NormalizedScore > fused[j].NormalizedScore
	})

	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused
}
