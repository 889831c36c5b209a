package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/internal/store"
)

// fakeAdapter records every outbound operation so tests can assert on the
// engine's side effects without a platform connection.
type fakeAdapter struct {
	mu       sync.Mutex
	platform models.Platform
	me       *models.User

	sent     []bot.SendRequest
	deleted  []string
	banned   []string
	unbanned []string
	muted    []string
	unmuted  []string
	accepted int

	users     []*models.User
	roles     []*models.Role
	sendErr   error
	banErr    error
	unbanErr  error
	unmuteErr error

	nextID int
}

func newFakeAdapter(platform models.Platform) *fakeAdapter {
	return &fakeAdapter{
		platform: platform,
		me: &models.User{
			Platform: platform,
			ID:       "bot-id",
			Name:     "testbot",
			IsBot:    true,
		},
	}
}

func (f *fakeAdapter) Platform() models.Platform { return f.platform }

func (f *fakeAdapter) Me() *models.User { return f.me }

func (f *fakeAdapter) Start(handler func(bot.InboundEvent)) error { return nil }

func (f *fakeAdapter) Stop() error { return nil }

func (f *fakeAdapter) Send(ctx context.Context, req bot.SendRequest) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, req)
	f.nextID++
	message := models.NewMessage(f.platform, fmt.Sprintf("sent-%d", f.nextID))
	message.Text = req.Text
	message.Chat = req.Chat
	if message.Chat == nil && req.ReplyTo != nil {
		message.Chat = req.ReplyTo.Chat
	}
	if message.Chat == nil && req.Edit != nil {
		message.Chat = req.Edit.Chat
	}
	message.Author = f.me
	if len(req.Buttons) > 0 {
		message.ButtonsInfo = &models.ButtonsInfo{Buttons: req.Buttons, Key: req.ButtonsKey}
	}
	return message, nil
}

func (f *fakeAdapter) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, chatID+"/"+messageID)
	return nil
}

func (f *fakeAdapter) AcceptButtonEvent(ctx context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accepted++
	return nil
}

func (f *fakeAdapter) Ban(ctx context.Context, userID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.banErr != nil {
		return f.banErr
	}
	f.banned = append(f.banned, userID)
	return nil
}

func (f *fakeAdapter) Unban(ctx context.Context, userID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unbanErr != nil {
		return f.unbanErr
	}
	f.unbanned = append(f.unbanned, userID)
	return nil
}

func (f *fakeAdapter) Mute(ctx context.Context, userID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.muted = append(f.muted, userID)
	return nil
}

func (f *fakeAdapter) Unmute(ctx context.Context, userID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unmuteErr != nil {
		return f.unmuteErr
	}
	f.unmuted = append(f.unmuted, userID)
	return nil
}

func (f *fakeAdapter) GroupRoles(ctx context.Context, groupID string) ([]*models.Role, error) {
	return f.roles, nil
}

func (f *fakeAdapter) GroupUsers(ctx context.Context, groupID string) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeAdapter) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var texts []string
	for _, req := range f.sent {
		texts = append(texts, req.Text)
	}
	return texts
}

// fakeEvent is a scripted inbound event.
type fakeEvent struct {
	platform    models.Platform
	id          string
	text        string
	author      *models.User
	mentions    []*models.User
	chat        *models.Chat
	replied     *models.Message
	buttonPress bool
	pressedText string
	presser     *models.User
	eventID     string
}

func (e *fakeEvent) Platform() models.Platform { return e.platform }

func (e *fakeEvent) MessageID(ctx context.Context) (string, error) { return e.id, nil }

func (e *fakeEvent) Author(ctx context.Context) (*models.User, error) { return e.author, nil }

func (e *fakeEvent) Text(ctx context.Context) (string, error) { return e.text, nil }

func (e *fakeEvent) Mentions(ctx context.Context) ([]*models.User, error) { return e.mentions, nil }

func (e *fakeEvent) Chat(ctx context.Context) (*models.Chat, error) { return e.chat, nil }

func (e *fakeEvent) RepliedMessage(ctx context.Context) (*models.Message, error) {
	return e.replied, nil
}

func (e *fakeEvent) IsInline() *bool { return nil }

func (e *fakeEvent) IsButtonPress() bool { return e.buttonPress }

func (e *fakeEvent) ButtonPressedText(ctx context.Context) (string, error) {
	return e.pressedText, nil
}

func (e *fakeEvent) ButtonPresserUser(ctx context.Context) (*models.User, error) {
	return e.presser, nil
}

func (e *fakeEvent) ButtonEventID() string { return e.eventID }

func testConfig() *Config {
	return &Config{
		Matching: MatchingConfig{MinScore: 0.93, ScoreThreshold: 3},
		Cache:    CacheConfig{TTL: "1h", SweepInterval: "1h"},
		Penalty:  PenaltyConfig{SweepInterval: "1h", DeferThreshold: "72h"},
	}
}

func newTestEngine() (*Engine, *fakeAdapter, *store.MemoryStore) {
	st := store.NewMemoryStore()
	engine := NewEngine(testConfig(), st)
	adapter := newFakeAdapter(models.PlatformDiscord)
	engine.RegisterAdapter(adapter)
	return engine, adapter, st
}

func groupChat() *models.Chat {
	return &models.Chat{
		Platform:  models.PlatformDiscord,
		ID:        "channel-1",
		Name:      "general",
		GroupID:   "guild-1",
		GroupName: "Test Guild",
	}
}

func privateChat() *models.Chat {
	return &models.Chat{
		Platform: models.PlatformDiscord,
		ID:       "dm-1",
		Name:     "alice",
	}
}

func groupMessage(text string, author *models.User) *models.Message {
	message := models.NewMessage(models.PlatformDiscord, "msg-1")
	message.Text = text
	message.Author = author
	message.Chat = groupChat()
	return message
}

func adminUser() *models.User {
	return &models.User{Platform: models.PlatformDiscord, ID: "admin-1", Name: "alice", IsAdmin: true}
}

func plainUser() *models.User {
	return &models.User{Platform: models.PlatformDiscord, ID: "user-1", Name: "bob"}
}
