// Package bot provides platform adapters for Discord, Telegram and Twitch.
//
// Each adapter translates SDK-native events and objects into the common
// model types and implements the outbound operations the engine needs
// (send, edit, delete, moderation primitives). The core never touches a
// platform SDK type; it only sees InboundEvent and Adapter.
//
// # Usage
//
//	discordBot := bot.NewDiscordBot(token)
//	err := discordBot.Start(func(ev bot.InboundEvent) { ... })
//	...
//	discordBot.Stop()
//
// # Thread Safety
//
// All adapters are safe for concurrent use. The event handler callback may
// be invoked concurrently from SDK goroutines.
package bot

import (
	"context"

	"github.com/multibot-dev/multibot/internal/models"
)

// InboundEvent is one normalized platform event. The extraction methods are
// the five-plus capabilities the engine materializes a Message from; they
// may hit the platform API and therefore take a context.
type InboundEvent interface {
	// Platform identifies which adapter produced the event
	Platform() models.Platform

	// MessageID returns the platform id of the event's message
	MessageID(ctx context.Context) (string, error)

	// Author returns the sending user, nil for system messages
	Author(ctx context.Context) (*models.User, error)

	// Text returns the raw message text
	Text(ctx context.Context) (string, error)

	// Mentions returns the users explicitly mentioned in the message
	Mentions(ctx context.Context) ([]*models.User, error)

	// Chat returns the conversation the event happened in
	Chat(ctx context.Context) (*models.Chat, error)

	// RepliedMessage returns the message this one replies to, or nil
	RepliedMessage(ctx context.Context) (*models.Message, error)

	// IsInline reports whether the event is an inline query; nil on
	// platforms without the concept
	IsInline() *bool

	// IsButtonPress reports whether the event is a button interaction
	// rather than a new message
	IsButtonPress() bool

	// ButtonPressedText returns the label of the pressed button, "" when
	// the event is not a button press
	ButtonPressedText(ctx context.Context) (string, error)

	// ButtonPresserUser returns who pressed the button, nil when the event
	// is not a button press
	ButtonPresserUser(ctx context.Context) (*models.User, error)

	// ButtonEventID returns the platform id of the pending button
	// interaction, "" when the event is not a button press or the
	// platform needs no acknowledgment
	ButtonEventID() string
}

// SendRequest describes an outbound message. Exactly one of Chat, ReplyTo
// or Edit determines the destination: Edit rewrites an existing message in
// place, ReplyTo threads onto one, Chat posts fresh.
type SendRequest struct {
	Text       string
	Buttons    [][]*models.Button
	ButtonsKey string
	Chat       *models.Chat
	ReplyTo    *models.Message
	Edit       *models.Message
	Silent     bool
}

// Adapter is a connected platform bot. Start begins delivering events to
// the handler and returns once the connection is established; delivery
// happens on adapter goroutines.
type Adapter interface {
	// Platform identifies the adapter
	Platform() models.Platform

	// Me returns the bot's own user on this platform, nil before Start
	Me() *models.User

	// Start connects and begins listening for events
	Start(handler func(InboundEvent)) error

	// Stop disconnects and cleans up resources
	Stop() error

	// Send delivers a message and returns its materialized form
	Send(ctx context.Context, req SendRequest) (*models.Message, error)

	// DeleteMessage removes a message from a chat
	DeleteMessage(ctx context.Context, chatID, messageID string) error

	// AcceptButtonEvent dismisses the platform's pending interaction
	// spinner for a button press on msg; no-op when there is none
	AcceptButtonEvent(ctx context.Context, msg *models.Message) error

	// Moderation primitives. GroupID is the platform group the action
	// applies in. Implementations return UserDisconnectedError-compatible
	// errors when the target already left.
	Ban(ctx context.Context, userID, groupID string) error
	Unban(ctx context.Context, userID, groupID string) error
	Mute(ctx context.Context, userID, groupID string) error
	Unmute(ctx context.Context, userID, groupID string) error

	// GroupRoles lists the roles defined in a group, empty on platforms
	// without roles
	GroupRoles(ctx context.Context, groupID string) ([]*models.Role, error)

	// GroupUsers lists the members of a group
	GroupUsers(ctx context.Context, groupID string) ([]*models.User, error)
}
