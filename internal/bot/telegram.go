package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// TelegramBot implements Adapter for Telegram using long polling
type TelegramBot struct {
	mu      sync.RWMutex
	token   string
	api     *tgbotapi.BotAPI
	me      *models.User
	handler func(InboundEvent)
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewTelegramBot creates a new Telegram bot instance
func NewTelegramBot(token string) *TelegramBot {
	return &TelegramBot{
		token: token,
	}
}

// Platform identifies the adapter
func (t *TelegramBot) Platform() models.Platform {
	return models.PlatformTelegram
}

// Me returns the bot's own user, nil before Start
func (t *TelegramBot) Me() *models.User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.me
}

// Start establishes long polling connection to Telegram and begins listening for events
func (t *TelegramBot) Start(handler func(InboundEvent)) error {
	t.ctx, t.cancel = context.WithCancel(context.Background())

	logger.WithFields(logrus.Fields{
		"token": maskSecret(t.token),
	}).Info("starting-telegram-bot-with-long-polling")

	api, err := tgbotapi.NewBotAPI(t.token)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err,
		}).Error("failed-to-initialize-telegram-bot")
		return fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	t.mu.Lock()
	t.api = api
	t.handler = handler
	t.me = &models.User{
		Platform: models.PlatformTelegram,
		ID:       strconv.FormatInt(api.Self.ID, 10),
		Name:     api.Self.UserName,
		IsBot:    true,
	}
	t.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"bot_username": api.Self.UserName,
		"bot_id":       api.Self.ID,
	}).Info("telegram-bot-initialized-successfully")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60 // long poll timeout in seconds

	updates := api.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-t.ctx.Done():
				logger.Info("telegram-long-polling-stopped")
				return
			case update, ok := <-updates:
				if !ok {
					logger.Info("telegram-updates-channel-closed")
					return
				}
				t.handleUpdate(update)
			}
		}
	}()

	logger.Info("telegram-long-polling-connection-started")
	return nil
}

// handleUpdate converts one Telegram update into an inbound event
func (t *TelegramBot) handleUpdate(update tgbotapi.Update) {
	t.mu.RLock()
	handler := t.handler
	t.mu.RUnlock()
	if handler == nil {
		return
	}

	switch {
	case update.Message != nil:
		handler(&telegramEvent{bot: t, message: update.Message})
	case update.EditedMessage != nil:
		handler(&telegramEvent{bot: t, message: update.EditedMessage})
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		handler(&telegramEvent{bot: t, message: update.CallbackQuery.Message, callback: update.CallbackQuery})
	}
}

// Stop closes the Telegram long polling connection and cleans up resources
func (t *TelegramBot) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}

	t.mu.Lock()
	api := t.api
	t.api = nil
	t.mu.Unlock()

	if api != nil {
		api.StopReceivingUpdates()
	}

	logger.Info("telegram-bot-stopped")
	return nil
}

func (t *TelegramBot) client() (*tgbotapi.BotAPI, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.api == nil {
		return nil, fmt.Errorf("telegram bot not initialized")
	}
	return t.api, nil
}

// Send delivers a message, optionally with an inline keyboard or as an
// edit of an earlier message
func (t *TelegramBot) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	api, err := t.client()
	if err != nil {
		return nil, err
	}

	chat := req.Chat
	if chat == nil && req.ReplyTo != nil {
		chat = req.ReplyTo.Chat
	}
	if chat == nil && req.Edit != nil {
		chat = req.Edit.Chat
	}
	if chat == nil {
		return nil, fmt.Errorf("chat is required for Telegram")
	}
	chatID, err := strconv.ParseInt(chat.ID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID format: %w", err)
	}

	text := truncate(req.Text, constants.MaxTelegramMessageLength)

	var chattable tgbotapi.Chattable
	if req.Edit != nil {
		messageID, err := strconv.Atoi(req.Edit.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid message ID format: %w", err)
		}
		if len(req.Buttons) > 0 {
			edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, buildTelegramKeyboard(req.Buttons, req.ButtonsKey))
			chattable = edit
		} else {
			chattable = tgbotapi.NewEditMessageText(chatID, messageID, text)
		}
	} else {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.DisableNotification = req.Silent
		if req.ReplyTo != nil {
			if replyID, err := strconv.Atoi(req.ReplyTo.ID); err == nil {
				msg.ReplyToMessageID = replyID
			}
		}
		if len(req.Buttons) > 0 {
			msg.ReplyMarkup = buildTelegramKeyboard(req.Buttons, req.ButtonsKey)
		}
		chattable = msg
	}

	sent, err := api.Send(chattable)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"chat_id": chat.ID,
			"error":   err,
		}).Error("failed-to-send-message-to-telegram")
		return nil, fmt.Errorf("failed to send message to chat %s: %w", chat.ID, err)
	}

	message := models.NewMessage(models.PlatformTelegram, strconv.Itoa(sent.MessageID))
	message.Text = text
	message.Chat = chat
	message.Author = t.Me()
	message.RepliedMessage = req.ReplyTo
	if len(req.Buttons) > 0 {
		message.ButtonsInfo = &models.ButtonsInfo{Buttons: req.Buttons, Key: req.ButtonsKey}
	}
	return message, nil
}

// buildTelegramKeyboard encodes the grid key into each button's callback
// data so a press routes back to its grid. Telegram caps callback data at
// 64 bytes; the label is clipped to fit next to the key.
func buildTelegramKeyboard(buttons [][]*models.Button, key string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var out []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			label := button.Text
			if button.IsChecked {
				label = "✔ " + label
			}
			data := key + "|" + button.Text
			if len(data) > 64 {
				data = data[:64]
			}
			out = append(out, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		rows = append(rows, out)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// DeleteMessage removes a message from a chat
func (t *TelegramBot) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	chat, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat ID format: %w", err)
	}
	message, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid message ID format: %w", err)
	}
	if _, err := api.Request(tgbotapi.NewDeleteMessage(chat, message)); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return nil
}

// AcceptButtonEvent answers the pending callback query so the client
// stops showing a loading spinner
func (t *TelegramBot) AcceptButtonEvent(ctx context.Context, msg *models.Message) error {
	if msg.ButtonsInfo == nil || msg.ButtonsInfo.PendingEventID == "" {
		return nil
	}
	api, err := t.client()
	if err != nil {
		return err
	}
	if _, err := api.Request(tgbotapi.NewCallback(msg.ButtonsInfo.PendingEventID, "")); err != nil {
		return fmt.Errorf("failed to answer callback query: %w", err)
	}
	msg.ButtonsInfo.PendingEventID = ""
	return nil
}

func (t *TelegramBot) memberConfig(userID, groupID string) (tgbotapi.ChatMemberConfig, error) {
	chat, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return tgbotapi.ChatMemberConfig{}, fmt.Errorf("invalid group ID format: %w", err)
	}
	user, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return tgbotapi.ChatMemberConfig{}, fmt.Errorf("invalid user ID format: %w", err)
	}
	return tgbotapi.ChatMemberConfig{ChatID: chat, UserID: user}, nil
}

// Ban kicks the user from the group
func (t *TelegramBot) Ban(ctx context.Context, userID, groupID string) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	member, err := t.memberConfig(userID, groupID)
	if err != nil {
		return err
	}
	if _, err := api.Request(tgbotapi.BanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("failed to ban user %s: %w", userID, err)
	}
	return nil
}

// Unban lifts a ban
func (t *TelegramBot) Unban(ctx context.Context, userID, groupID string) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	member, err := t.memberConfig(userID, groupID)
	if err != nil {
		return err
	}
	if _, err := api.Request(tgbotapi.UnbanChatMemberConfig{ChatMemberConfig: member}); err != nil {
		return fmt.Errorf("failed to unban user %s: %w", userID, err)
	}
	return nil
}

// Mute restricts the user from sending messages
func (t *TelegramBot) Mute(ctx context.Context, userID, groupID string) error {
	return t.restrict(userID, groupID, false)
}

// Unmute restores the user's messaging permissions
func (t *TelegramBot) Unmute(ctx context.Context, userID, groupID string) error {
	return t.restrict(userID, groupID, true)
}

func (t *TelegramBot) restrict(userID, groupID string, allow bool) error {
	api, err := t.client()
	if err != nil {
		return err
	}
	member, err := t.memberConfig(userID, groupID)
	if err != nil {
		return err
	}
	permissions := &tgbotapi.ChatPermissions{
		CanSendMessages:       allow,
		CanSendMediaMessages:  allow,
		CanSendOtherMessages:  allow,
		CanAddWebPagePreviews: allow,
	}
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: member,
		Permissions:      permissions,
	}
	if _, err := api.Request(cfg); err != nil {
		return fmt.Errorf("failed to restrict user %s: %w", userID, err)
	}
	return nil
}

// GroupRoles returns nothing: Telegram has no role concept
func (t *TelegramBot) GroupRoles(ctx context.Context, groupID string) ([]*models.Role, error) {
	return nil, nil
}

// GroupUsers lists the group's administrators. Telegram's bot API has no
// full member listing, so this is the best available roster.
func (t *TelegramBot) GroupUsers(ctx context.Context, groupID string) ([]*models.User, error) {
	api, err := t.client()
	if err != nil {
		return nil, err
	}
	chat, err := strconv.ParseInt(groupID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid group ID format: %w", err)
	}
	admins, err := api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chat},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list chat administrators: %w", err)
	}
	var users []*models.User
	for _, admin := range admins {
		if admin.User == nil {
			continue
		}
		users = append(users, telegramUser(admin.User, true))
	}
	return users, nil
}

func telegramUser(u *tgbotapi.User, isAdmin bool) *models.User {
	name := u.UserName
	if name == "" {
		name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	return &models.User{
		Platform: models.PlatformTelegram,
		ID:       strconv.FormatInt(u.ID, 10),
		Name:     name,
		IsAdmin:  isAdmin,
		IsBot:    u.IsBot,
	}
}

// telegramEvent adapts one Telegram update to InboundEvent. For callback
// queries the wrapped message is the one carrying the pressed keyboard.
type telegramEvent struct {
	bot      *TelegramBot
	message  *tgbotapi.Message
	callback *tgbotapi.CallbackQuery
}

func (e *telegramEvent) Platform() models.Platform {
	return models.PlatformTelegram
}

func (e *telegramEvent) MessageID(ctx context.Context) (string, error) {
	return strconv.Itoa(e.message.MessageID), nil
}

func (e *telegramEvent) Author(ctx context.Context) (*models.User, error) {
	if e.message.From == nil {
		return nil, nil
	}
	isAdmin, err := e.bot.isChatAdmin(e.message.Chat, e.message.From.ID)
	if err != nil {
		return nil, err
	}
	return telegramUser(e.message.From, isAdmin), nil
}

// isChatAdmin checks group admin status; private chats count as admin.
func (t *TelegramBot) isChatAdmin(chat *tgbotapi.Chat, userID int64) (bool, error) {
	if chat == nil || chat.IsPrivate() {
		return true, nil
	}
	api, err := t.client()
	if err != nil {
		return false, err
	}
	member, err := api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chat.ID, UserID: userID},
	})
	if err != nil {
		return false, fmt.Errorf("failed to get chat member: %w", err)
	}
	return member.IsCreator() || member.IsAdministrator(), nil
}

func (e *telegramEvent) Text(ctx context.Context) (string, error) {
	if e.message.Text != "" {
		return e.message.Text, nil
	}
	return e.message.Caption, nil
}

func (e *telegramEvent) Mentions(ctx context.Context) ([]*models.User, error) {
	var mentions []*models.User
	entities := e.message.Entities
	if entities == nil {
		entities = e.message.CaptionEntities
	}
	for _, entity := range entities {
		switch {
		case entity.Type == "text_mention" && entity.User != nil:
			mentions = append(mentions, telegramUser(entity.User, false))
		case entity.Type == "mention":
			// Plain @mentions carry no user id; keep the username so the
			// engine can still show who was named.
			text := e.message.Text
			if text == "" {
				text = e.message.Caption
			}
			username := mentionText(text, entity)
			if username != "" {
				mentions = append(mentions, &models.User{
					Platform: models.PlatformTelegram,
					Name:     strings.TrimPrefix(username, "@"),
				})
			}
		}
	}
	return mentions, nil
}

// mentionText extracts the entity's slice of text, offsets being UTF-16.
func mentionText(text string, entity tgbotapi.MessageEntity) string {
	runes := []rune(text)
	// entity offsets count UTF-16 code units; BMP-only text matches runes
	if entity.Offset < 0 || entity.Offset+entity.Length > len(runes) {
		return ""
	}
	return string(runes[entity.Offset : entity.Offset+entity.Length])
}

func (e *telegramEvent) Chat(ctx context.Context) (*models.Chat, error) {
	chat := e.message.Chat
	if chat == nil {
		return nil, nil
	}
	out := &models.Chat{
		Platform: models.PlatformTelegram,
		ID:       strconv.FormatInt(chat.ID, 10),
		Name:     chat.Title,
	}
	if !chat.IsPrivate() {
		out.GroupID = out.ID
		out.GroupName = chat.Title
	} else if e.message.From != nil {
		out.Name = e.message.From.UserName
	}
	return out, nil
}

func (e *telegramEvent) RepliedMessage(ctx context.Context) (*models.Message, error) {
	replied := e.message.ReplyToMessage
	if replied == nil {
		return nil, nil
	}
	message := models.NewMessage(models.PlatformTelegram, strconv.Itoa(replied.MessageID))
	message.Text = replied.Text
	if replied.From != nil {
		message.Author = telegramUser(replied.From, false)
	}
	chat, err := e.Chat(ctx)
	if err != nil {
		return nil, err
	}
	message.Chat = chat
	return message, nil
}

func (e *telegramEvent) IsInline() *bool {
	return nil
}

func (e *telegramEvent) IsButtonPress() bool {
	return e.callback != nil
}

func (e *telegramEvent) ButtonPressedText(ctx context.Context) (string, error) {
	if e.callback == nil {
		return "", nil
	}
	// callback data is "<grid key>|<button text>"
	if idx := strings.IndexByte(e.callback.Data, '|'); idx >= 0 {
		return e.callback.Data[idx+1:], nil
	}
	return e.callback.Data, nil
}

func (e *telegramEvent) ButtonPresserUser(ctx context.Context) (*models.User, error) {
	if e.callback == nil || e.callback.From == nil {
		return nil, nil
	}
	isAdmin, err := e.bot.isChatAdmin(e.message.Chat, e.callback.From.ID)
	if err != nil {
		return nil, err
	}
	return telegramUser(e.callback.From, isAdmin), nil
}

func (e *telegramEvent) ButtonEventID() string {
	if e.callback == nil {
		return ""
	}
	return e.callback.ID
}
