package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// discordMuteDuration is how long a Discord timeout lasts when applied.
// The penalty scheduler lifts it earlier when the sentence is shorter;
// 28 days is the longest timeout Discord accepts.
const discordMuteDuration = 28 * 24 * time.Hour

// DiscordBot implements Adapter for Discord using the gateway websocket
type DiscordBot struct {
	mu      sync.RWMutex
	token   string
	session *discordgo.Session
	me      *models.User
	handler func(InboundEvent)
	// pending holds unacknowledged component interactions by id
	pending map[string]*discordgo.Interaction
}

// NewDiscordBot creates a new Discord bot instance
func NewDiscordBot(token string) *DiscordBot {
	return &DiscordBot{
		token:   token,
		pending: make(map[string]*discordgo.Interaction),
	}
}

// Platform identifies the adapter
func (d *DiscordBot) Platform() models.Platform {
	return models.PlatformDiscord
}

// Me returns the bot's own user, nil before Start
func (d *DiscordBot) Me() *models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.me
}

// Start opens the gateway connection and begins listening for events
func (d *DiscordBot) Start(handler func(InboundEvent)) error {
	logger.WithFields(logrus.Fields{
		"token": maskSecret(d.token),
	}).Info("starting-discord-bot")

	session, err := discordgo.New("Bot " + d.token)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"error": err,
		}).Error("failed-to-initialize-discord-session")
		return fmt.Errorf("failed to initialize Discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onInteractionCreate)

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord gateway: %w", err)
	}

	d.mu.Lock()
	d.session = session
	d.handler = handler
	if session.State != nil && session.State.User != nil {
		d.me = &models.User{
			Platform: models.PlatformDiscord,
			ID:       session.State.User.ID,
			Name:     session.State.User.Username,
			IsBot:    true,
		}
	}
	me := d.me
	d.mu.Unlock()

	logger.WithFields(identityFields(me)).Info("discord-bot-connected")
	return nil
}

// identityFields builds log fields for the bot's own user, which the
// gateway may not have populated yet.
func identityFields(me *models.User) logrus.Fields {
	if me == nil {
		return logrus.Fields{}
	}
	return logrus.Fields{
		"bot_username": me.Name,
		"bot_id":       me.ID,
	}
}

// Stop closes the gateway connection
func (d *DiscordBot) Stop() error {
	d.mu.Lock()
	session := d.session
	d.session = nil
	d.mu.Unlock()

	if session != nil {
		if err := session.Close(); err != nil {
			return fmt.Errorf("failed to close Discord session: %w", err)
		}
	}
	logger.Info("discord-bot-stopped")
	return nil
}

func (d *DiscordBot) client() (*discordgo.Session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.session == nil {
		return nil, fmt.Errorf("discord bot not initialized")
	}
	return d.session, nil
}

func (d *DiscordBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	d.mu.RLock()
	handler := d.handler
	d.mu.RUnlock()
	if handler == nil || m.Message == nil {
		return
	}
	handler(&discordEvent{bot: d, message: m.Message})
}

func (d *DiscordBot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionMessageComponent || i.Message == nil {
		return
	}
	d.mu.Lock()
	handler := d.handler
	d.pending[i.ID] = i.Interaction
	d.mu.Unlock()
	if handler == nil {
		return
	}
	handler(&discordEvent{bot: d, message: i.Message, interaction: i.Interaction})
}

// Send delivers a message, optionally with button components or as an
// edit of an earlier message
func (d *DiscordBot) Send(ctx context.Context, req SendRequest) (*models.Message, error) {
	session, err := d.client()
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
		return nil, fmt.Errorf("chat is required for Discord")
	}

	text := truncate(req.Text, constants.MaxDiscordMessageLength)
	components := buildDiscordComponents(req.Buttons, req.ButtonsKey)

	var sent *discordgo.Message
	if req.Edit != nil {
		edit := &discordgo.MessageEdit{
			ID:      req.Edit.ID,
			Channel: chat.ID,
			Content: &text,
		}
		if components != nil {
			edit.Components = components
		}
		sent, err = session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	} else {
		send := &discordgo.MessageSend{
			Content:    text,
			Components: components,
		}
		if req.ReplyTo != nil {
			send.Reference = &discordgo.MessageReference{
				MessageID: req.ReplyTo.ID,
				ChannelID: chat.ID,
				GuildID:   chat.GroupID,
			}
		}
		sent, err = session.ChannelMessageSendComplex(chat.ID, send, discordgo.WithContext(ctx))
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"channel": chat.ID,
			"error":   err,
		}).Error("failed-to-send-message-to-discord")
		return nil, fmt.Errorf("failed to send message to channel %s: %w", chat.ID, err)
	}

	message := models.NewMessage(models.PlatformDiscord, sent.ID)
	message.Text = text
	message.Chat = chat
	message.Author = d.Me()
	message.RepliedMessage = req.ReplyTo
	if len(req.Buttons) > 0 {
		message.ButtonsInfo = &models.ButtonsInfo{Buttons: req.Buttons, Key: req.ButtonsKey}
	}
	return message, nil
}

// buildDiscordComponents lays the grid out as action rows, encoding the
// grid key into each button's custom id.
func buildDiscordComponents(buttons [][]*models.Button, key string) []discordgo.MessageComponent {
	if len(buttons) == 0 {
		return nil
	}
	var components []discordgo.MessageComponent
	for _, row := range buttons {
		var rowComponents []discordgo.MessageComponent
		for _, button := range row {
			style := discordgo.SecondaryButton
			if button.IsChecked {
				style = discordgo.SuccessButton
			}
			rowComponents = append(rowComponents, discordgo.Button{
				Label:    button.Text,
				Style:    style,
				CustomID: key + "|" + button.Text,
			})
		}
		components = append(components, discordgo.ActionsRow{Components: rowComponents})
	}
	return components
}

// DeleteMessage removes a message from a channel
func (d *DiscordBot) DeleteMessage(ctx context.Context, chatID, messageID string) error {
	session, err := d.client()
	if err != nil {
		return err
	}
	if err := session.ChannelMessageDelete(chatID, messageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return nil
}

// AcceptButtonEvent answers the pending component interaction with a
// deferred update so the client stops waiting
func (d *DiscordBot) AcceptButtonEvent(ctx context.Context, msg *models.Message) error {
	if msg.ButtonsInfo == nil || msg.ButtonsInfo.PendingEventID == "" {
		return nil
	}
	session, err := d.client()
	if err != nil {
		return err
	}

	d.mu.Lock()
	interaction := d.pending[msg.ButtonsInfo.PendingEventID]
	delete(d.pending, msg.ButtonsInfo.PendingEventID)
	d.mu.Unlock()
	if interaction == nil {
		return nil
	}

	err = session.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to acknowledge interaction: %w", err)
	}
	msg.ButtonsInfo.PendingEventID = ""
	return nil
}

// Ban bans the user from the guild
func (d *DiscordBot) Ban(ctx context.Context, userID, groupID string) error {
	session, err := d.client()
	if err != nil {
		return err
	}
	if err := session.GuildBanCreate(groupID, userID, 0, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to ban user %s: %w", userID, err)
	}
	return nil
}

// Unban lifts a guild ban
func (d *DiscordBot) Unban(ctx context.Context, userID, groupID string) error {
	session, err := d.client()
	if err != nil {
		return err
	}
	if err := session.GuildBanDelete(groupID, userID, discordgo.WithContext(ctx)); err != nil {
		if isUnknownBan(err) {
			return &models.UserDisconnectedError{UserID: userID}
		}
		return fmt.Errorf("failed to unban user %s: %w", userID, err)
	}
	return nil
}

// Mute times the user out; the penalty scheduler lifts it when due
func (d *DiscordBot) Mute(ctx context.Context, userID, groupID string) error {
	session, err := d.client()
	if err != nil {
		return err
	}
	until := time.Now().Add(discordMuteDuration)
	if err := session.GuildMemberTimeout(groupID, userID, &until, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to mute user %s: %w", userID, err)
	}
	return nil
}

// Unmute clears the user's timeout
func (d *DiscordBot) Unmute(ctx context.Context, userID, groupID string) error {
	session, err := d.client()
	if err != nil {
		return err
	}
	if err := session.GuildMemberTimeout(groupID, userID, nil, discordgo.WithContext(ctx)); err != nil {
		if isUnknownMember(err) {
			return &models.UserDisconnectedError{UserID: userID}
		}
		return fmt.Errorf("failed to unmute user %s: %w", userID, err)
	}
	return nil
}

func isUnknownBan(err error) bool {
	return discordErrorCode(err) == discordgo.ErrCodeUnknownBan
}

func isUnknownMember(err error) bool {
	return discordErrorCode(err) == discordgo.ErrCodeUnknownMember
}

func discordErrorCode(err error) int {
	if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil {
		return restErr.Message.Code
	}
	return 0
}

// GroupRoles lists the guild's roles
func (d *DiscordBot) GroupRoles(ctx context.Context, groupID string) ([]*models.Role, error) {
	session, err := d.client()
	if err != nil {
		return nil, err
	}
	roles, err := session.GuildRoles(groupID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list guild roles: %w", err)
	}
	var out []*models.Role
	for _, role := range roles {
		out = append(out, &models.Role{
			Platform: models.PlatformDiscord,
			ID:       role.ID,
			GroupID:  groupID,
			Name:     role.Name,
			IsAdmin:  role.Permissions&discordgo.PermissionAdministrator != 0,
		})
	}
	return out, nil
}

// GroupUsers lists the guild's members
func (d *DiscordBot) GroupUsers(ctx context.Context, groupID string) ([]*models.User, error) {
	session, err := d.client()
	if err != nil {
		return nil, err
	}
	members, err := session.GuildMembers(groupID, "", 1000, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to list guild members: %w", err)
	}
	var users []*models.User
	for _, member := range members {
		if member.User == nil {
			continue
		}
		user := discordUser(member.User, memberIsAdmin(session, groupID, member))
		user.RoleIDs = member.Roles
		users = append(users, user)
	}
	return users, nil
}

// memberIsAdmin resolves admin status from the member's roles via the
// session state cache, falling back to false when the guild is not cached.
func memberIsAdmin(session *discordgo.Session, guildID string, member *discordgo.Member) bool {
	if session.State == nil {
		return false
	}
	guild, err := session.State.Guild(guildID)
	if err != nil {
		return false
	}
	if guild.OwnerID == member.User.ID {
		return true
	}
	for _, roleID := range member.Roles {
		for _, role := range guild.Roles {
			if role.ID == roleID && role.Permissions&discordgo.PermissionAdministrator != 0 {
				return true
			}
		}
	}
	return false
}

func discordUser(u *discordgo.User, isAdmin bool) *models.User {
	return &models.User{
		Platform: models.PlatformDiscord,
		ID:       u.ID,
		Name:     u.Username,
		IsAdmin:  isAdmin,
		IsBot:    u.Bot,
	}
}

// discordEvent adapts one Discord message or component interaction to
// InboundEvent. For interactions the wrapped message is the one carrying
// the pressed components.
type discordEvent struct {
	bot         *DiscordBot
	message     *discordgo.Message
	interaction *discordgo.Interaction
}

func (e *discordEvent) Platform() models.Platform {
	return models.PlatformDiscord
}

func (e *discordEvent) MessageID(ctx context.Context) (string, error) {
	return e.message.ID, nil
}

func (e *discordEvent) Author(ctx context.Context) (*models.User, error) {
	author := e.message.Author
	if author == nil {
		return nil, nil
	}
	return discordUser(author, e.bot.userIsAdmin(e.message.GuildID, author.ID)), nil
}

func (e *discordEvent) Text(ctx context.Context) (string, error) {
	return e.message.Content, nil
}

func (e *discordEvent) Mentions(ctx context.Context) ([]*models.User, error) {
	var mentions []*models.User
	for _, mention := range e.message.Mentions {
		mentions = append(mentions, discordUser(mention, false))
	}
	return mentions, nil
}

func (e *discordEvent) Chat(ctx context.Context) (*models.Chat, error) {
	chat := &models.Chat{
		Platform: models.PlatformDiscord,
		ID:       e.message.ChannelID,
	}
	if e.message.GuildID != "" {
		chat.GroupID = e.message.GuildID
		if e.bot.session != nil && e.bot.session.State != nil {
			if guild, err := e.bot.session.State.Guild(e.message.GuildID); err == nil {
				chat.GroupName = guild.Name
			}
			if channel, err := e.bot.session.State.Channel(e.message.ChannelID); err == nil {
				chat.Name = channel.Name
			}
		}
	}
	return chat, nil
}

func (e *discordEvent) RepliedMessage(ctx context.Context) (*models.Message, error) {
	replied := e.message.ReferencedMessage
	if replied == nil {
		return nil, nil
	}
	message := models.NewMessage(models.PlatformDiscord, replied.ID)
	message.Text = replied.Content
	if replied.Author != nil {
		message.Author = discordUser(replied.Author, false)
	}
	chat, err := e.Chat(ctx)
	if err != nil {
		return nil, err
	}
	message.Chat = chat
	return message, nil
}

func (e *discordEvent) IsInline() *bool {
	return nil
}

func (e *discordEvent) IsButtonPress() bool {
	return e.interaction != nil
}

func (e *discordEvent) ButtonPressedText(ctx context.Context) (string, error) {
	if e.interaction == nil {
		return "", nil
	}
	data, ok := e.interaction.Data.(discordgo.MessageComponentInteractionData)
	if !ok {
		return "", nil
	}
	// custom id is "<grid key>|<button text>"
	if idx := strings.IndexByte(data.CustomID, '|'); idx >= 0 {
		return data.CustomID[idx+1:], nil
	}
	return data.CustomID, nil
}

func (e *discordEvent) ButtonPresserUser(ctx context.Context) (*models.User, error) {
	if e.interaction == nil {
		return nil, nil
	}
	var user *discordgo.User
	if e.interaction.Member != nil {
		user = e.interaction.Member.User
	} else {
		user = e.interaction.User
	}
	if user == nil {
		return nil, nil
	}
	return discordUser(user, e.bot.userIsAdmin(e.interaction.GuildID, user.ID)), nil
}

func (e *discordEvent) ButtonEventID() string {
	if e.interaction == nil {
		return ""
	}
	return e.interaction.ID
}

// userIsAdmin resolves admin status through the state cache; DMs count as
// admin.
func (d *DiscordBot) userIsAdmin(guildID, userID string) bool {
	if guildID == "" {
		return true
	}
	d.mu.RLock()
	session := d.session
	d.mu.RUnlock()
	if session == nil || session.State == nil {
		return false
	}
	member, err := session.State.Member(guildID, userID)
	if err != nil {
		return false
	}
	return memberIsAdmin(session, guildID, member)
}
