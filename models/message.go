package models

import (
	"time"
)

// Message is a single chat turn attached to a file
type Message struct {
	ID            string    `json:"id"`
	FileID        string    `json:"-"`
	IsUserMessage bool      `json:"isUserMessage"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"createdAt"`
}

// MessagePage is one page of messages, newest first
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}
