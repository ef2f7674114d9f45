package chat

import "time"

// Session captures a transient anonymous booking conversation.
type Session struct {
	ID        string    `json:"id"`
	Language  Language  `json:"language"`
	CreatedAt time.Time `json:"createdAt"`
}
