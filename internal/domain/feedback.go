package domain

import (
	"strings"
	"time"
)

type FeedbackEntry struct {
	Message  string    `json:"message"`
	Date     time.Time `json:"date"`
	IsAdmin  bool      `json:"isAdminAuthored"`
	AuthorID string    `json:"authorId,omitempty"`
}

// AppendFeedback adds a message to the support thread. The thread stays open
// whatever the order status.
func (o *Order) AppendFeedback(message, authorID string, isAdmin bool, now time.Time) (FeedbackEntry, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return FeedbackEntry{}, NewValidationError("message", "message is required")
	}
	entry := FeedbackEntry{
		Message:  message,
		Date:     now,
		IsAdmin:  isAdmin,
		AuthorID: authorID,
	}
	o.state.feedback = append(o.state.feedback, entry)
	o.touch(now)
	return entry, nil
}
