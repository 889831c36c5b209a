package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// twitchTimeoutSeconds is the timeout length used for mutes, the longest
// Twitch accepts. The penalty scheduler lifts it earlier when due.
const twitchTimeoutSeconds = 1209600

// TwitchBot implements Adapter for Twitch chat over IRC. Twitch has no
// buttons, edits or native replies-with-ids, so those capabilities degrade
// to plain chat messages.
type TwitchBot struct {
	mu       sync.RWMutex
	username string
	token    string
	channels []string
	client   *twitchirc.Client
	me       *models.User
	handler  func(InboundEvent)
}

// NewTwitchBot creates a new Twitch bot instance. The token is an OAuth
// chat token ("oauth:..." prefix included).
func NewTwitchBot(username, token string, channels []string) *TwitchBot {
	return &TwitchBot{
		username: username,
		token:    token,
		channels: channels,
	}
}

// Platform identifies the adapter
func (t *TwitchBot) Platform() models.Platform {
	return models.PlatformTwitch
}

// Me returns the bot's own user
func (t *TwitchBot) Me() *models.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.me
}

// Start connects to Twitch IRC and joins the configured channels
func (t *TwitchBot) Start(handler func(InboundEvent)) error {
	logger.WithFields(logrus.Fields{
		"username": t.username,
		"token":    maskSecret(t.token),
		"channels": t.channels,
	}).Info("starting-twitch-bot")

	client := twitchirc.NewClient(t.username, t.token)

	t.mu.Lock()
	t.client = client
	t.handler = handler
	t.me = &models.User{
		Platform: models.PlatformTwitch,
		ID:       t.username,
		Name:     t.username,
		IsBot:    true,
	}
	t.mu.Unlock()

	client.OnPrivateMessage(func(message twitchirc.PrivateMessage) {
		t.mu.RLock()
		h := t.handler
		t.mu.RUnlock()
		if h != nil {
			h(&twitchEvent{bot: t, message: message})
		}
	})
	client.OnConnect(func() {
		logger.Info("twitch-irc-connected")
	})
	client.Join(t.channels...)

	// Connect blocks until Disconnect is called
	go func() {
		if err := client.Connect(); err != nil {
			logger.WithFields(logrus.Fields{
				"error": err,
			}).Error("twitch-irc-connection-ended")
		}
	}()
	return nil
}

// Stop disconnects from Twitch IRC
func (t *TwitchBot) Stop() error {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.mu.Unlock()

	if client != nil {
		if err := client.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect from Twitch: %w", err)
		}
	}
	logger.Info("twitch-bot-stopped")
	return nil
}

func (t *TwitchBot) irc() (*twitchirc.Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.client == nil {
		return nil, fmt.Errorf("twitch bot not initialized")
	}
	return t.client, nil
}

// Send says the text in the chat's channel. IRC does not echo message
// ids, so the returned message carries a locally generated one. Buttons
// are flattened into the text and edits are not supported.
func (t *TwitchBot) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	if req.Edit != nil {
		return nil, fmt.Errorf("message editing is not supported on Twitch")
	}
	client, err := t.irc()
	if err != nil {
		return nil, err
	}

	chat := req.Chat
	if chat == nil && req.ReplyTo != nil {
		chat = req.ReplyTo.Chat
	}
	if chat == nil {
		return nil, fmt.Errorf("chat is required for Twitch")
	}

	text := req.Text
	if len(req.Buttons) > 0 {
		var labels []string
		for _, row := range req.Buttons {
			for _, button := range row {
				labels = append(labels, button.Text)
			}
		}
		text = text + " [" + strings.Join(labels, " | ") + "]"
	}
	text = truncate(text, constants.MaxTwitchMessageLength)

	if req.ReplyTo != nil && req.ReplyTo.Author != nil {
		client.Reply(chat.ID, req.ReplyTo.ID, text)
	} else {
		client.Say(chat.ID, text)
	}

	message := models.NewMessage(models.PlatformTwitch, uuid.NewString())
	message.Text = text
	message.Chat = chat
	message.Author = t.Me()
	message.RepliedMessage = req.ReplyTo
	return message, nil
}

// DeleteMessage removes a chat message by id via the moderation command
func (t *TwitchBot) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	client, err := t.irc()
	if err != nil {
		return err
	}
	client.Say(chatID, "/delete "+messageID)
	return nil
}

// AcceptButtonEvent is a no-op: Twitch has no button interactions
func (t *TwitchBot) AcceptButtonEvent(ctx context.Context, msg *models.Message) error {
	return nil
}

// Ban bans the user from the channel. GroupID is the channel name.
func (t *TwitchBot) Ban(ctx context.Context, userID, groupID string) error {
	client, err := t.irc()
	if err != nil {
		return err
	}
	client.Say(groupID, "/ban "+userID)
	return nil
}

// Unban lifts a channel ban
func (t *TwitchBot) Unban(ctx context.Context, userID, groupID string) error {
	client, err := t.irc()
	if err != nil {
		return err
	}
	client.Say(groupID, "/unban "+userID)
	return nil
}

// Mute times the user out for the maximum Twitch allows
func (t *TwitchBot) Mute(ctx context.Context, userID, groupID string) error {
	client, err := t.irc()
	if err != nil {
		return err
	}
	client.Say(groupID, fmt.Sprintf("/timeout %s %d", userID, twitchTimeoutSeconds))
	return nil
}

// Unmute clears the user's timeout
func (t *TwitchBot) Unmute(ctx context.Context, userID, groupID string) error {
	client, err := t.irc()
	if err != nil {
		return err
	}
	client.Say(groupID, "/untimeout "+userID)
	return nil
}

// GroupRoles returns nothing: Twitch chat has badges, not roles
func (t *TwitchBot) GroupRoles(ctx context.Context, groupID string) ([]*models.Role, error) {
	return nil, nil
}

// GroupUsers lists the channel's connected chatters
func (t *TwitchBot) GroupUsers(ctx context.Context, groupID string) ([]*models.User, error) {
	client, err := t.irc()
	if err != nil {
		return nil, err
	}
	names, err := client.Userlist(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel users: %w", err)
	}
	var users []*models.User
	for _, name := range names {
		users = append(users, &models.User{
			Platform: models.PlatformTwitch,
			ID:       name,
			Name:     name,
		})
	}
	return users, nil
}

// twitchEvent adapts one Twitch chat message to InboundEvent
type twitchEvent struct {
	bot     *TwitchBot
	message twitchirc.PrivateMessage
}

func (e *twitchEvent) Platform() models.Platform {
	return models.PlatformTwitch
}

func (e *twitchEvent) MessageID(ctx context.Context) (string, error) {
	return e.message.ID, nil
}

// Author converts the IRC sender. The login name is the user id: the
// userlist and the moderation commands all work on login names, so every
// Twitch user in the system carries the same identity.
func (e *twitchEvent) Author(ctx context.Context) (*models.User, error) {
	user := e.message.User
	_, mod := user.Badges["moderator"]
	_, broadcaster := user.Badges["broadcaster"]
	name := user.Name
	if user.DisplayName != "" {
		name = user.DisplayName
	}
	return &models.User{
		Platform: models.PlatformTwitch,
		ID:       user.Name,
		Name:     name,
		IsAdmin:  mod || broadcaster,
	}, nil
}

func (e *twitchEvent) Text(ctx context.Context) (string, error) {
	return e.message.Message, nil
}

// Mentions extracts @username tokens; IRC carries no structured mentions.
func (e *twitchEvent) Mentions(ctx context.Context) ([]*models.User, error) {
	var mentions []*models.User
	for _, word := range strings.Fields(e.message.Message) {
		if !strings.HasPrefix(word, "@") {
			continue
		}
		name := strings.TrimRight(strings.TrimPrefix(word, "@"), ".,;:!?")
		if name == "" {
			continue
		}
		mentions = append(mentions, &models.User{
			Platform: models.PlatformTwitch,
			ID:       strings.ToLower(name),
			Name:     name,
		})
	}
	return mentions, nil
}

func (e *twitchEvent) Chat(ctx context.Context) (*models.Chat, error) {
	return &models.Chat{
		Platform:  models.PlatformTwitch,
		ID:        e.message.Channel,
		Name:      e.message.Channel,
		GroupID:   e.message.Channel,
		GroupName: e.message.Channel,
	}, nil
}

func (e *twitchEvent) RepliedMessage(ctx context.Context) (*models.Message, error) {
	parentID := e.message.Tags["reply-parent-msg-id"]
	if parentID == "" {
		return nil, nil
	}
	message := models.NewMessage(models.PlatformTwitch, parentID)
	message.Text = e.message.Tags["reply-parent-msg-body"]
	if login := e.message.Tags["reply-parent-user-login"]; login != "" {
		message.Author = &models.User{
			Platform: models.PlatformTwitch,
			ID:       login,
			Name:     login,
		}
	}
	chat, err := e.Chat(ctx)
	if err != nil {
		return nil, err
	}
	message.Chat = chat
	return message, nil
}

func (e *twitchEvent) IsInline() *bool {
	return nil
}

func (e *twitchEvent) IsButtonPress() bool {
	return false
}

func (e *twitchEvent) ButtonPressedText(ctx context.Context) (string, error) {
	return "", nil
}

func (e *twitchEvent) ButtonPresserUser(ctx context.Context) (*models.User, error) {
	return nil, nil
}

func (e *twitchEvent) ButtonEventID() string {
	return ""
}
