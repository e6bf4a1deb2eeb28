package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID        uuid.UUID  `json:"id"`
	TutorID   uuid.UUID  `json:"tutor_id"`
	StudentID uuid.UUID  `json:"student_id"`
	SenderID  uuid.UUID  `json:"sender_id"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsUnreadFromStudent reports whether the student sent the message and the tutor has not read it.
func (m *Message) IsUnreadFromStudent() bool {
	return m.SenderID == m.StudentID && m.ReadAt == nil
}

// Conversation is the tutor's inbox summary of one student's thread.
type Conversation struct {
	StudentID     uuid.UUID `json:"student_id"`
	StudentName   string    `json:"student_name"`
	LastMessage   string    `json:"last_message"`
	LastMessageAt time.Time `json:"last_message_at"`
	UnreadCount   int       `json:"unread_count"`
}
