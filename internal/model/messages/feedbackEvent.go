package messages

import "time"

// FeedbackEvent carries a user rating (1..5) and an optional comment.
type FeedbackEvent struct {
	ID        string    `json:"id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
