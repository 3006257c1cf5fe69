package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

type MessageID int64

const MaxMessageLength = 4000

type Message struct {
	ID         MessageID
	RoomID     RoomID
	AuthorID   UserID
	AuthorName string
	Content    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewMessage(room RoomID, author UserID, content string, now time.Time) (*Message, error) {
	content, err := NormalizeContent(content)
	if err != nil {
		return nil, err
	}

	return &Message{
		RoomID:    room,
		AuthorID:  author,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Edit меняет текст; права проверяются только по авторству.
func (m *Message) Edit(editor UserID, content string, now time.Time) error {
	if m.AuthorID != editor {
		return ErrNotAuthor
	}
	content, err := NormalizeContent(content)
	if err != nil {
		return err
	}
	m.Content = content
	m.UpdatedAt = now
	return nil
}

func NormalizeContent(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Validation("message is empty")
	}
	if utf8.RuneCountInString(s) > MaxMessageLength {
		return "", Validation("message is too long")
	}
	return s, nil
}
