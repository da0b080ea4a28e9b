package rag

import "errors"

// ErrNoEvidence signals that both retrieval legs came back empty. It is a
// legitimate state, not a fault; generation refuses to answer instead of
// fabricating content.
var ErrNoEvidence = errors.New("no evidence found")
