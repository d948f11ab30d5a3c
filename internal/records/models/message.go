package models

import "time"

// Message is a note sent by a user to the author of a thesis. SenderName
// and ThesisTitle are filled in by reads that join users and theses.
type Message struct {
	ID          int64
	SenderID    int64
	SenderName  string
	RecipientID int64
	ThesisID    int64
	ThesisTitle string
	Body        string
	SentAt      time.Time
}
