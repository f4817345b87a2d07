package domain

import "time"

// ActionFeedbackSubmitted is the only action the relay forwards.
const ActionFeedbackSubmitted = "feedback.submitted"

// SubmissionEvent announces that a FeedbackRecord was committed.
// It carries only what downstream rendering needs; the record stays in the store.
type SubmissionEvent struct {
	EventID        string    `json:"event_id"`
	Action         string    `json:"action"`
	FeedbackID     string    `json:"feedback_id"`
	ProductName    string    `json:"product_name"`
	CommentExcerpt string    `json:"comment_excerpt,omitempty"`
	SubmittedAt    time.Time `json:"submitted_at"`
}
