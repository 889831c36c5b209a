package models

import "time"

// Message is the normalized chat message the engine dispatches on. It is
// built once per (platform id, chat id) by the message cache and mutated in
// place when the same logical message is edited or a button on it pressed.
// Author may be nil for system messages.
type Message struct {
	Platform       Platform
	ID             string
	Author         *User
	Text           string
	Mentions       []*User
	ButtonsInfo    *ButtonsInfo
	Chat           *Chat
	RepliedMessage *Message
	Date           time.Time
	LastEdit       time.Time
	// IsInline is nil on platforms without inline queries
	IsInline  *bool
	IsDeleted bool
}

// NewMessage returns a message stamped with the current time.
func NewMessage(platform Platform, id string) *Message {
	return &Message{
		Platform: platform,
		ID:       id,
		Date:     time.Now().UTC(),
	}
}

// ChatID returns the id of the chat the message belongs to, or "" when the
// chat is unknown.
func (m *Message) ChatID() string {
	if m.Chat == nil {
		return ""
	}
	return m.Chat.ID
}

// TouchEdit records an in-place edit.
func (m *Message) TouchEdit() {
	m.LastEdit = time.Now().UTC()
}

// Document renders the message for persistence. Button grids and back
// references stay in memory only; the store keeps the routable fields.
func (m *Message) Document() map[string]any {
	doc := map[string]any{
		"platform":   m.Platform.String(),
		"id":         m.ID,
		"text":       m.Text,
		"date":       m.Date.Format(time.RFC3339Nano),
		"is_deleted": m.IsDeleted,
	}
	if m.Author != nil {
		doc["author_id"] = m.Author.ID
		doc["author_name"] = m.Author.Name
	}
	if m.Chat != nil {
		doc["chat_id"] = m.Chat.ID
		doc["group_id"] = m.Chat.GroupID
		doc["group_name"] = m.Chat.GroupName
	}
	return doc
}
