package types

// SourceCitation is one entry of the ordered evidence list attached to an
// assistant message and emitted on the `sources` stream event. The position in
// the list is the [n] the generated text cites.
type SourceCitation struct {
	VideoID    string  `json:"video_id"`
	VideoTitle string  `json:"video_title"`
	VideoURL   string  `json:"video_url"`
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}
