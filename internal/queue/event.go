// Package queue defines message payloads exchanged over the message broker.
package queue

// ContestPhaseEvent is published every time a contest enters a new
// lifecycle phase. It carries enough information for downstream consumers
// to log or notify without querying the primary database.
type ContestPhaseEvent struct {
	ContestID uint64 `json:"contest_id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Phase     string `json:"phase"`
	Number    uint32 `json:"number"`
	Year      int    `json:"year"`
	EnteredAt string `json:"entered_at"`
}
