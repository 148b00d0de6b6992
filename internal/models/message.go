package models

import "time"

// Message is one communication with a contact, in either direction.
type Message struct {
	Base         `bson:",inline"`
	ContactID    string           `bson:"contact_id" json:"contact_id"`
	StaffID      *string          `bson:"staff_id,omitempty" json:"staff_id"`
	Channel      MessageChannel   `bson:"channel" json:"channel"`
	Direction    MessageDirection `bson:"direction" json:"direction"`
	Status       MessageStatus    `bson:"status" json:"status"`
	Content      string           `bson:"content" json:"content"`
	Subject      *string          `bson:"subject,omitempty" json:"subject"`
	ErrorMessage *string          `bson:"error_message,omitempty" json:"error_message"`
	CreatedAt    time.Time        `bson:"created_at" json:"created_at"`
	SentAt       *time.Time       `bson:"sent_at,omitempty" json:"sent_at"`
}

// Conversation groups the message history of one contact.
type Conversation struct {
	Contact      Contact   `json:"contact"`
	Messages     []Message `json:"messages"`
	LastMessage  *Message  `json:"last_message,omitempty"`
	MessageCount int       `json:"message_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ConversationSummary is the per-contact aggregate used to list conversations.
type ConversationSummary struct {
	ContactID    string  `bson:"_id"`
	LastMessage  Message `bson:"last_message"`
	MessageCount int     `bson:"message_count"`
}
