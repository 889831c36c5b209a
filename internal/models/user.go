package models

// User is a platform user as seen by the core. IsAdmin reflects the user's
// standing in the chat the triggering event came from, not a global flag.
type User struct {
	Platform Platform
	ID       string
	Name     string
	IsAdmin  bool
	IsBot    bool
	// RoleIDs holds the platform role ids the user carries in the group the
	// event came from, empty on platforms without roles.
	RoleIDs []string
}

// HasRole reports whether the user carries the role id.
func (u *User) HasRole(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Equal compares users by identity (platform, id).
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Platform == other.Platform && u.ID == other.ID
}

// Role is a named permission group inside a platform group chat.
type Role struct {
	Platform Platform
	ID       string
	GroupID  string
	Name     string
	IsAdmin  bool
}
