package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multibot-dev/multibot/internal/bot"
	"github.com/multibot-dev/multibot/internal/models"
)

func TestFindUsersToPunish_Mentions_BotExcluded(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	message := groupMessage("banealo", adminUser())
	message.Mentions = []*models.User{adapter.Me(), plainUser()}

	targets := engine.findUsersToPunish(context.Background(), message)

	require.Len(t, targets, 1)
	assert.Equal(t, "user-1", targets[0].ID)
}

func TestFindUsersToPunish_NoMentions_RepliedAuthorUsed(t *testing.T) {
	engine, _, _ := newTestEngine()
	message := groupMessage("banealo", adminUser())
	replied := models.NewMessage(models.PlatformDiscord, "msg-0")
	replied.Author = plainUser()
	message.RepliedMessage = replied

	targets := engine.findUsersToPunish(context.Background(), message)

	require.Len(t, targets, 1)
	assert.Equal(t, "user-1", targets[0].ID)
}

func TestFindUsersToPunish_OnlyBotNamed_NegativeReply(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	message := groupMessage("banealo", adminUser())
	message.Mentions = []*models.User{adapter.Me()}

	targets := engine.findUsersToPunish(context.Background(), message)

	assert.Empty(t, targets)
	assert.Len(t, adapter.sent, 1)
}

func TestFindUsersToPunish_NobodyNamed_InterrogationReply(t *testing.T) {
	engine, adapter, _ := newTestEngine()

	targets := engine.findUsersToPunish(context.Background(), groupMessage("banealo", adminUser()))

	assert.Empty(t, targets)
	assert.Len(t, adapter.sent, 1)
}

func TestDispatch_BanCommand_AdminWithMention_BansTarget(t *testing.T) {
	engine, adapter, _ := newTestEngine()

	engine.dispatch(context.Background(), &fakeEvent{
		platform: models.PlatformDiscord,
		id:       "msg-1",
		text:     "banealo",
		author:   adminUser(),
		mentions: []*models.User{adapter.Me(), plainUser()},
		chat:     groupChat(),
	})

	assert.Equal(t, []string{"user-1"}, adapter.banned)
}

func TestDispatch_BanCommand_NonAdmin_RefusedWithoutBanning(t *testing.T) {
	engine, adapter, _ := newTestEngine()

	engine.dispatch(context.Background(), &fakeEvent{
		platform: models.PlatformDiscord,
		id:       "msg-1",
		text:     "banealo",
		author:   plainUser(),
		mentions: []*models.User{adapter.Me(), adminUser()},
		chat:     groupChat(),
	})

	assert.Empty(t, adapter.banned)
	assert.Len(t, adapter.sent, 1)
}

func TestOnDelete_OverLimit_LimitError(t *testing.T) {
	engine, _, _ := newTestEngine()
	message := groupMessage("borra 500 mensajes", adminUser())

	err := engine.onDelete(context.Background(), message)

	var limit *LimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 500, limit.Requested)
}

func TestOnDelete_RepliedMessage_DeletedAndMarked(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	message := groupMessage("borra ese mensaje", adminUser())
	replied := models.NewMessage(models.PlatformDiscord, "msg-0")
	replied.Author = plainUser()
	message.RepliedMessage = replied

	err := engine.onDelete(context.Background(), message)

	require.NoError(t, err)
	assert.Contains(t, adapter.deleted, "channel-1/msg-0")
	assert.True(t, replied.IsDeleted)
}

func TestOnDelete_BulkClear_DeletesRecentRecordedMessages(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	for _, id := range []string{"old-1", "old-2", "old-3"} {
		message := models.NewMessage(models.PlatformDiscord, id)
		message.Chat = groupChat()
		require.NoError(t, engine.store.Save(context.Background(), messagesCollection,
			map[string]any{"platform": "discord", "id": id, "chat_id": "channel-1"},
			message.Document()))
	}
	message := groupMessage("borra 2 mensajes", adminUser())

	err := engine.onDelete(context.Background(), message)

	require.NoError(t, err)
	assert.Len(t, adapter.deleted, 2)
}

func TestOnDelete_NoReplyNoAmount_InterrogationReply(t *testing.T) {
	engine, adapter, _ := newTestEngine()

	err := engine.onDelete(context.Background(), groupMessage("borra eso", adminUser()))

	require.NoError(t, err)
	assert.Empty(t, adapter.deleted)
	assert.Len(t, adapter.sent, 1)
}

func TestOnUsers_RolesAvailable_SendsFilterGrid(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	adapter.users = []*models.User{
		{Platform: models.PlatformDiscord, ID: "u1", Name: "alice", RoleIDs: []string{"r1"}},
		{Platform: models.PlatformDiscord, ID: "u2", Name: "bob"},
	}
	adapter.roles = []*models.Role{
		{Platform: models.PlatformDiscord, ID: "r0", GroupID: "guild-1", Name: "@everyone"},
		{Platform: models.PlatformDiscord, ID: "r1", GroupID: "guild-1", Name: "mods"},
	}

	err := engine.onUsers(context.Background(), groupMessage("usuarios", plainUser()))

	require.NoError(t, err)
	require.Len(t, adapter.sent, 1)
	sent := adapter.sent[0]
	assert.Contains(t, sent.Text, "2 users")
	assert.Contains(t, sent.Text, "alice, bob")
	require.Len(t, sent.Buttons, 1)
	require.Len(t, sent.Buttons[0], 1)
	assert.Equal(t, "mods", sent.Buttons[0][0].Text)
	assert.Equal(t, usersButtonsKey, sent.ButtonsKey)
}

func TestOnUsers_NoUsers_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine()

	err := engine.onUsers(context.Background(), groupMessage("usuarios", plainUser()))

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDispatch_UsersRoleButtonPress_TogglesFilterAndEdits(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	adapter.users = []*models.User{
		{Platform: models.PlatformDiscord, ID: "u1", Name: "alice", RoleIDs: []string{"r1"}},
		{Platform: models.PlatformDiscord, ID: "u2", Name: "bob"},
	}
	adapter.roles = []*models.Role{
		{Platform: models.PlatformDiscord, ID: "r1", GroupID: "guild-1", Name: "mods"},
	}

	grid := models.NewMessage(models.PlatformDiscord, "grid-1")
	grid.Chat = groupChat()
	grid.ButtonsInfo = &models.ButtonsInfo{
		Buttons: [][]*models.Button{{{Text: "mods"}}},
		Key:     usersButtonsKey,
	}
	engine.cache.Put(grid)

	engine.dispatch(context.Background(), &fakeEvent{
		platform:    models.PlatformDiscord,
		id:          "grid-1",
		chat:        groupChat(),
		buttonPress: true,
		pressedText: "mods",
		presser:     plainUser(),
		eventID:     "interaction-1",
	})

	assert.True(t, grid.ButtonsInfo.Buttons[0][0].IsChecked)
	assert.Equal(t, 1, adapter.accepted)
	require.Len(t, adapter.sent, 1)
	edit := adapter.sent[0]
	assert.Same(t, grid, edit.Edit)
	assert.Contains(t, edit.Text, "1 users")
	assert.Contains(t, edit.Text, "alice")
	assert.NotContains(t, edit.Text, "bob")
}

func TestEngine_FindUsersByRoles_EmptyFilter_ReturnsEveryone(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	adapter.users = []*models.User{
		{ID: "u1", Name: "alice", RoleIDs: []string{"r1"}},
		{ID: "u2", Name: "bob"},
	}

	users, err := engine.FindUsersByRoles(context.Background(), models.PlatformDiscord, "guild-1", nil)

	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestEngine_FindUsersByRoles_RoleFilter_MatchesCarriers(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	adapter.users = []*models.User{
		{ID: "u1", Name: "alice", RoleIDs: []string{"r1", "r2"}},
		{ID: "u2", Name: "bob", RoleIDs: []string{"r2"}},
		{ID: "u3", Name: "carol"},
	}
	adapter.roles = []*models.Role{
		{ID: "r1", GroupID: "guild-1", Name: "mods"},
		{ID: "r2", GroupID: "guild-1", Name: "subs"},
	}

	users, err := engine.FindUsersByRoles(context.Background(), models.PlatformDiscord, "guild-1", []string{"mods"})

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)
}

func TestEngine_GroupIDByName_RecordedMessage_Resolved(t *testing.T) {
	engine, _, _ := newTestEngine()
	_, err := engine.Send(context.Background(), bot.SendRequest{Text: "hola", Chat: groupChat()})
	require.NoError(t, err)

	groupID, err := engine.GroupIDByName(context.Background(), models.PlatformDiscord, "Test Guild")

	require.NoError(t, err)
	assert.Equal(t, "guild-1", groupID)
}

func TestEngine_GroupIDByName_UnknownGroup_NotFound(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.GroupIDByName(context.Background(), models.PlatformDiscord, "nowhere")

	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEngine_UserIDByName_RecordedMessage_Resolved(t *testing.T) {
	engine, _, _ := newTestEngine()
	message := groupMessage("hola", plainUser())
	require.NoError(t, engine.store.Save(context.Background(), messagesCollection,
		map[string]any{"id": message.ID}, message.Document()))

	userID, err := engine.UserIDByName(context.Background(), models.PlatformDiscord, "bob")

	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}
