package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/logger"
	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// usersButtonsKey correlates the users command's role-filter grid with its
// button handler.
const usersButtonsKey = "users"

// registerBuiltins wires the built-in moderation commands. Each command is
// registered under every phrasing its keyword table provides; the resolver
// dedupes them to the best-scoring one.
func (e *Engine) registerBuiltins() {
	moderation := func(h Handler) Handler {
		return e.Guarded(h, BotMentioned(true), GroupOnly(), AdminOnly(true))
	}

	registrations := []struct {
		name     string
		handler  Handler
		keywords any
	}{
		{"ban", moderation(e.onBan), constants.Keywords["ban"]},
		{"delete", moderation(e.onDelete), constants.Keywords["delete"]},
		{"delete", moderation(e.onDelete), [][]string{constants.Keywords["delete"], constants.Keywords["message"]}},
		{"mute", moderation(e.onMute), constants.Keywords["mute"]},
		{"mute", moderation(e.onMute), [][]string{{"haz", "se"}, constants.Keywords["mute"]}},
		{"mute", moderation(e.onMute), [][]string{constants.Keywords["deactivate"], constants.Keywords["unmute"]}},
		{"mute", moderation(e.onMute), [][]string{constants.Keywords["deactivate"], constants.Keywords["sound"]}},
		{"unban", moderation(e.onUnban), constants.Keywords["unban"]},
		{"unmute", moderation(e.onUnmute), constants.Keywords["unmute"]},
		{"unmute", moderation(e.onUnmute), [][]string{constants.Keywords["deactivate"], constants.Keywords["mute"]}},
		{"unmute", moderation(e.onUnmute), [][]string{constants.Keywords["activate"], constants.Keywords["sound"]}},
		{"users", e.Guarded(e.onUsers, BotMentioned(true), GroupOnly()), constants.Keywords["user"]},
	}
	for _, reg := range registrations {
		if err := e.registry.Register(reg.name, reg.handler, reg.keywords, nil); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"handler": reg.name,
			}).Error("failed-to-register-builtin-handler")
		}
	}
	if err := e.registry.RegisterButton("users", e.onUsersButtonPress, usersButtonsKey); err != nil {
		logger.WithError(err).Error("failed-to-register-builtin-button-handler")
	}
}

// findUsersToPunish resolves the targets of a moderation command from the
// message's mentions and, failing that, the replied message's author. A
// command naming nobody gets a confused reply; one aimed only at the bot
// gets a refusal.
func (e *Engine) findUsersToPunish(ctx context.Context, msg *models.Message) []*models.User {
	me := e.me(msg.Platform)
	var targets []*models.User
	mentionedMe := false
	for _, mention := range msg.Mentions {
		if me != nil && mention.ID == me.ID {
			mentionedMe = true
			continue
		}
		targets = append(targets, mention)
	}
	if len(targets) == 0 && msg.RepliedMessage != nil && msg.RepliedMessage.Author != nil {
		author := msg.RepliedMessage.Author
		if me != nil && author.ID == me.ID {
			mentionedMe = true
		} else {
			targets = append(targets, author)
		}
	}
	if len(targets) == 0 {
		if mentionedMe {
			e.SendNegative(ctx, msg)
		} else {
			e.SendInterrogation(ctx, msg)
		}
		return nil
	}
	return targets
}

func (e *Engine) onBan(ctx context.Context, msg *models.Message) error {
	targets := e.findUsersToPunish(ctx, msg)
	if len(targets) == 0 {
		return nil
	}
	duration := WordsToDuration(msg.Text)
	for _, target := range targets {
		if err := e.Ban(ctx, msg.Platform, target.ID, msg.Chat.GroupID, duration); err != nil {
			return fmt.Errorf("failed to ban %s: %w", target.Name, err)
		}
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"user":     target.ID,
			"group":    msg.Chat.GroupID,
			"duration": duration,
		}).Info("user-banned")
	}
	e.deleteAfter(msg, constants.CommandMessageDuration)
	return nil
}

func (e *Engine) onUnban(ctx context.Context, msg *models.Message) error {
	targets := e.findUsersToPunish(ctx, msg)
	if len(targets) == 0 {
		return nil
	}
	for _, target := range targets {
		if err := e.Unban(ctx, msg.Platform, target.ID, msg.Chat.GroupID); err != nil {
			return fmt.Errorf("failed to unban %s: %w", target.Name, err)
		}
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"user":     target.ID,
			"group":    msg.Chat.GroupID,
		}).Info("user-unbanned")
	}
	e.deleteAfter(msg, constants.CommandMessageDuration)
	return nil
}

func (e *Engine) onMute(ctx context.Context, msg *models.Message) error {
	targets := e.findUsersToPunish(ctx, msg)
	if len(targets) == 0 {
		return nil
	}
	duration := WordsToDuration(msg.Text)
	for _, target := range targets {
		if err := e.Mute(ctx, msg.Platform, target.ID, msg.Chat.GroupID, duration); err != nil {
			return fmt.Errorf("failed to mute %s: %w", target.Name, err)
		}
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"user":     target.ID,
			"group":    msg.Chat.GroupID,
			"duration": duration,
		}).Info("user-muted")
	}
	e.deleteAfter(msg, constants.CommandMessageDuration)
	return nil
}

func (e *Engine) onUnmute(ctx context.Context, msg *models.Message) error {
	targets := e.findUsersToPunish(ctx, msg)
	if len(targets) == 0 {
		return nil
	}
	for _, target := range targets {
		if err := e.Unmute(ctx, msg.Platform, target.ID, msg.Chat.GroupID); err != nil {
			return fmt.Errorf("failed to unmute %s: %w", target.Name, err)
		}
		logger.WithFields(logrus.Fields{
			"platform": msg.Platform,
			"user":     target.ID,
			"group":    msg.Chat.GroupID,
		}).Info("user-unmuted")
	}
	e.deleteAfter(msg, constants.CommandMessageDuration)
	return nil
}

// onDelete removes the replied message, or bulk-clears the last N recorded
// messages when the command names an amount instead of replying.
func (e *Engine) onDelete(ctx context.Context, msg *models.Message) error {
	if msg.RepliedMessage != nil {
		adapter := e.adapter(msg.Platform)
		if adapter == nil {
			return &NotFoundError{What: "adapter for " + msg.Platform.String()}
		}
		if err := adapter.DeleteMessage(ctx, msg.ChatID(), msg.RepliedMessage.ID); err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		msg.RepliedMessage.IsDeleted = true
		e.deleteAfter(msg, constants.CommandMessageDuration)
		return nil
	}

	requested := int(SumNumbersInText(msg.Text))
	if requested <= 0 {
		e.SendInterrogation(ctx, msg)
		return nil
	}
	if err := e.Clear(ctx, msg.Platform, msg.ChatID(), requested); err != nil {
		return err
	}
	e.deleteAfter(msg, constants.CommandMessageDuration)
	return nil
}

// onUsers replies with the group's member list and, on platforms with
// roles, a grid of role buttons. Toggling role buttons edits the message in
// place with the members matching the checked roles.
func (e *Engine) onUsers(ctx context.Context, msg *models.Message) error {
	users, err := e.FindUsersByRoles(ctx, msg.Platform, msg.Chat.GroupID, nil)
	if err != nil {
		return fmt.Errorf("failed to list group users: %w", err)
	}
	if len(users) == 0 {
		return &NotFoundError{What: "users in " + msg.Chat.GroupName}
	}

	adapter := e.adapter(msg.Platform)
	roles, err := adapter.GroupRoles(ctx, msg.Chat.GroupID)
	if err != nil {
		return fmt.Errorf("failed to list group roles: %w", err)
	}

	perRow := constants.MaxTelegramButtonsPerRow
	if msg.Platform == models.PlatformDiscord {
		perRow = constants.MaxDiscordButtonsPerRow
	}
	var rows [][]*models.Button
	var row []*models.Button
	for _, role := range roles {
		// The everyone pseudo-role matches every member, filtering on it
		// is meaningless.
		if role.Name == "@everyone" {
			continue
		}
		row = append(row, &models.Button{Text: role.Name})
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	_, err = e.Send(ctx, bot.SendRequest{
		Text:       usersReport(users, len(rows) > 0),
		Buttons:    rows,
		ButtonsKey: usersButtonsKey,
		Chat:       msg.Chat,
		ReplyTo:    msg,
	})
	return err
}

// onUsersButtonPress toggles the pressed role filter and rewrites the user
// list with the members matching the checked roles.
func (e *Engine) onUsersButtonPress(ctx context.Context, msg *models.Message) error {
	e.acceptButtonEvent(ctx, msg)
	pressed := msg.ButtonsInfo.PressedButton()
	if pressed == nil {
		return nil
	}
	pressed.IsChecked = !pressed.IsChecked

	var selected []string
	for _, button := range msg.ButtonsInfo.CheckedButtons() {
		selected = append(selected, button.Text)
	}
	users, err := e.FindUsersByRoles(ctx, msg.Platform, msg.Chat.GroupID, selected)
	if err != nil {
		return fmt.Errorf("failed to filter users by roles: %w", err)
	}

	_, err = e.Send(ctx, bot.SendRequest{
		Text:       usersReport(users, true),
		Buttons:    msg.ButtonsInfo.Buttons,
		ButtonsKey: msg.ButtonsInfo.Key,
		Edit:       msg,
	})
	return err
}

func usersReport(users []*models.User, withFilter bool) string {
	names := make([]string, len(users))
	for i, user := range users {
		names[i] = user.Name
	}
	report := fmt.Sprintf("%d users:\n%s", len(users), strings.Join(names, ", "))
	if withFilter {
		report += "\n\nFilter users by roles:"
	}
	return report
}
