package core

import (
	"context"

	"github.com/multibot-dev/multibot/internal/models"
)

// Guard gates a handler before its body runs. Allow decides; when it
// returns false the chain dismisses any pending button interaction, runs
// the guard's Reject action if present, and short-circuits without calling
// the handler. Rejections are control flow, not errors.
type Guard struct {
	Name   string
	Allow  func(e *Engine, msg *models.Message) bool
	Reject func(ctx context.Context, e *Engine, msg *models.Message)
}

// Guarded wraps handler with an ordered guard chain.
func (e *Engine) Guarded(handler Handler, guards ...Guard) Handler {
	return func(ctx context.Context, msg *models.Message) error {
		for _, guard := range guards {
			if guard.Allow(e, msg) {
				continue
			}
			e.acceptButtonEvent(ctx, msg)
			if guard.Reject != nil {
				guard.Reject(ctx, e, msg)
			}
			return nil
		}
		return handler(ctx, msg)
	}
}

// AdminOnly passes when the sender is an admin or the chat is private.
// With sendNegative the rejection replies with a stock refusal.
func AdminOnly(sendNegative bool) Guard {
	g := Guard{
		Name: "admin",
		Allow: func(_ *Engine, msg *models.Message) bool {
			if msg.Chat.IsPrivate() {
				return true
			}
			return msg.Author != nil && msg.Author.IsAdmin
		},
	}
	if sendNegative {
		g.Reject = func(ctx context.Context, e *Engine, msg *models.Message) {
			e.SendNegative(ctx, msg)
		}
	}
	return g
}

// BotMentioned passes when the bot's mention state equals want.
func BotMentioned(want bool) Guard {
	return Guard{
		Name: "bot-mentioned",
		Allow: func(e *Engine, msg *models.Message) bool {
			return e.IsBotMentioned(msg) == want
		},
	}
}

// GroupOnly passes only in group chats.
func GroupOnly() Guard {
	return Guard{
		Name: "group",
		Allow: func(_ *Engine, msg *models.Message) bool {
			return msg.Chat.IsGroup()
		},
	}
}

// PrivateOnly passes only in direct chats.
func PrivateOnly() Guard {
	return Guard{
		Name: "private",
		Allow: func(_ *Engine, msg *models.Message) bool {
			return msg.Chat.IsPrivate()
		},
	}
}

// ReplyOnly passes when the message's reply state equals want.
func ReplyOnly(want bool) Guard {
	return Guard{
		Name: "reply",
		Allow: func(_ *Engine, msg *models.Message) bool {
			return (msg.RepliedMessage != nil) == want
		},
	}
}

// Inline passes when the message's inline state equals want, and always
// passes on platforms without inline queries.
func Inline(want bool) Guard {
	return Guard{
		Name: "inline",
		Allow: func(_ *Engine, msg *models.Message) bool {
			return msg.IsInline == nil || *msg.IsInline == want
		},
	}
}

// IgnoreSelf drops the bot's own messages; the feedback-loop breaker.
func IgnoreSelf() Guard {
	return Guard{
		Name: "ignore-self",
		Allow: func(e *Engine, msg *models.Message) bool {
			me := e.me(msg.Platform)
			return me == nil || msg.Author == nil || msg.Author.ID != me.ID
		},
	}
}

// Block rejects everything; useful to disable a built-in handler while
// keeping its registration (and its button dismissal) in place.
func Block() Guard {
	return Guard{
		Name:  "block",
		Allow: func(*Engine, *models.Message) bool { return false },
	}
}

// OutOfService rejects everything and, when the bot was addressed,
// apologizes with a stock out-of-service phrase.
func OutOfService() Guard {
	return Guard{
		Name:  "out-of-service",
		Allow: func(*Engine, *models.Message) bool { return false },
		Reject: func(ctx context.Context, e *Engine, msg *models.Message) {
			if e.IsBotMentioned(msg) || msg.Chat.IsPrivate() {
				e.SendOutOfService(ctx, msg)
			}
		},
	}
}
