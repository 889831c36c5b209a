package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/internal/store"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// messagesCollection is the store collection holding message records.
const messagesCollection = "messages"

// cacheKey identifies a logical message. Platform ids repeat across chats,
// so the chat id is part of the key.
type cacheKey struct {
	messageID string
	chatID    string
}

// MessageCache keeps recently materialized messages so repeated events on
// the same logical message (edits, button presses) reuse one identity
// instead of re-building and re-persisting it. Entries also carry the
// ephemeral button-UI state that never reaches the store.
//
// Mutation goes through the narrow API here; callers never rebuild or
// re-key a cached message.
type MessageCache struct {
	mu      sync.Mutex
	entries map[cacheKey]*models.Message
	// insertion order is roughly chronological, which lets eviction stop
	// at the first fresh entry
	order []cacheKey
	ttl   time.Duration
	store store.Store
}

// NewMessageCache returns an empty cache backed by st. A zero ttl uses the
// stock MessageCacheTTL.
func NewMessageCache(ttl time.Duration, st store.Store) *MessageCache {
	if ttl == 0 {
		ttl = constants.MessageCacheTTL
	}
	return &MessageCache{
		entries: make(map[cacheKey]*models.Message),
		ttl:     ttl,
		store:   st,
	}
}

// GetOrCreate returns the cached message for the event's (message id, chat
// id), materializing and persisting it on first sight. On a hit the cached
// message is refreshed with the event's button-press state, since a button
// press is semantically the same message receiving another interaction.
func (c *MessageCache) GetOrCreate(ctx context.Context, event bot.InboundEvent) (*models.Message, error) {
	messageID, err := event.MessageID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract message id: %w", err)
	}
	chat, err := event.Chat(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract chat: %w", err)
	}

	var chatID string
	if chat != nil {
		chatID = chat.ID
	}
	key := cacheKey{messageID: messageID, chatID: chatID}

	c.mu.Lock()
	cached, hit := c.entries[key]
	c.mu.Unlock()

	if hit {
		if err := c.RefreshButtonState(ctx, cached, event); err != nil {
			return nil, err
		}
		return cached, nil
	}

	message := models.NewMessage(event.Platform(), messageID)
	message.Chat = chat
	if message.Author, err = event.Author(ctx); err != nil {
		return nil, fmt.Errorf("failed to extract author: %w", err)
	}
	if message.Text, err = event.Text(ctx); err != nil {
		return nil, fmt.Errorf("failed to extract text: %w", err)
	}
	if message.Mentions, err = event.Mentions(ctx); err != nil {
		return nil, fmt.Errorf("failed to extract mentions: %w", err)
	}
	if message.RepliedMessage, err = event.RepliedMessage(ctx); err != nil {
		return nil, fmt.Errorf("failed to extract replied message: %w", err)
	}
	message.IsInline = event.IsInline()

	if c.store != nil {
		key := store.Document{"platform": message.Platform.String(), "id": message.ID, "chat_id": chatID}
		if err := c.store.Save(ctx, messagesCollection, key, message.Document()); err != nil {
			return nil, fmt.Errorf("failed to persist message: %w", err)
		}
	}

	c.Put(message)
	return message, nil
}

// Put inserts a materialized message, e.g. one the bot just sent. Existing
// entries keep their identity; Put on a known key is a no-op.
func (c *MessageCache) Put(message *models.Message) {
	if message == nil {
		return
	}
	key := cacheKey{messageID: message.ID, chatID: message.ChatID()}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return
	}
	c.entries[key] = message
	c.order = append(c.order, key)
}

// Get returns the cached message for (messageID, chatID), or nil.
func (c *MessageCache) Get(messageID, chatID string) *models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[cacheKey{messageID: messageID, chatID: chatID}]
}

// RefreshButtonState updates a cached message's button-UI state from a new
// event on the same logical message. No-op when the message carries no
// button grid or the event is not a button press.
func (c *MessageCache) RefreshButtonState(ctx context.Context, message *models.Message, event bot.InboundEvent) error {
	if message.ButtonsInfo == nil || !event.IsButtonPress() {
		return nil
	}

	pressedText, err := event.ButtonPressedText(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract pressed button text: %w", err)
	}
	presser, err := event.ButtonPresserUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to extract button presser: %w", err)
	}

	c.mu.Lock()
	message.ButtonsInfo.PressedText = pressedText
	message.ButtonsInfo.PresserUser = presser
	message.ButtonsInfo.PendingEventID = event.ButtonEventID()
	c.mu.Unlock()
	return nil
}

// Touch re-stamps a message's edit time.
func (c *MessageCache) Touch(message *models.Message) {
	c.mu.Lock()
	message.TouchEdit()
	c.mu.Unlock()
}

// Evict drops entries whose creation date is older than the TTL. Entries
// were inserted in roughly chronological order, so the scan short-circuits
// at the first entry still fresh.
func (c *MessageCache) Evict(now time.Time) int {
	cutoff := now.Add(-c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for len(c.order) > 0 {
		key := c.order[0]
		message, ok := c.entries[key]
		if ok && message.Date.After(cutoff) {
			break
		}
		if ok {
			delete(c.entries, key)
			evicted++
		}
		c.order = c.order[1:]
	}
	if evicted > 0 {
		logger.WithField("evicted", evicted).Debug("message-cache-evicted-expired-entries")
	}
	return evicted
}

// Len returns the number of cached messages.
func (c *MessageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
