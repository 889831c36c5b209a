// Package models defines the platform-independent chat objects the engine
// routes on: messages, users, chats, roles, button state and penalties.
//
// Adapters translate SDK-native objects into these types; the core never
// sees a platform SDK type directly. Records that persist (messages,
// penalties) know how to round-trip through the document store as plain
// field maps.
package models

// Platform identifies the chat service an object belongs to. Platform ids
// are only unique within a platform, so persisted keys always carry it.
type Platform string

const (
	PlatformDiscord  Platform = "discord"
	PlatformTelegram Platform = "telegram"
	PlatformTwitch   Platform = "twitch"
)

// String returns the lowercase platform name.
func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformDiscord, PlatformTelegram, PlatformTwitch:
		return true
	}
	return false
}
