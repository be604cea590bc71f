package model

import (
	"crypto/sha256"
	"fmt"
)

// SearchHit is a single raw result from the search provider. Transient; its
// only identity is the link.
type SearchHit struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// ClassificationDecision is a persisted verdict on whether a search hit
// describes a real industry event. Keyed by ItemHash; immutable once written
// (re-classification overwrites, last write wins).
type ClassificationDecision struct {
	ItemHash   string  `json:"item_hash"`
	IsEvent    bool    `json:"is_event"`
	Confidence float64 `json:"confidence,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// HashHit returns the stable SHA-256 hex hash of (title, link) used as the
// decision-cache key for a search hit.
func HashHit(title, link string) string {
	h := sha256.Sum256([]byte(title + "|" + link))
	return fmt.Sprintf("%x", h)
}
