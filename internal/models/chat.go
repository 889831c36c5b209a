package models

// Chat is the conversation an event happened in. GroupID is empty for
// direct messages; everything group-related keys off it.
type Chat struct {
	Platform  Platform
	ID        string
	Name      string
	GroupID   string
	GroupName string
}

// IsGroup reports whether the chat belongs to a group.
func (c *Chat) IsGroup() bool {
	return c != nil && c.GroupID != ""
}

// IsPrivate reports whether the chat is a direct conversation.
func (c *Chat) IsPrivate() bool {
	return !c.IsGroup()
}

// Document renders the chat for persistence.
func (c *Chat) Document() map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{
		"platform":   c.Platform.String(),
		"id":         c.ID,
		"name":       c.Name,
		"group_id":   c.GroupID,
		"group_name": c.GroupName,
	}
}
