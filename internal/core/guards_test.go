package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multibot-dev/multibot/internal/models"
)

func countingHandler(invoked *int) Handler {
	return func(ctx context.Context, msg *models.Message) error {
		*invoked++
		return nil
	}
}

func TestGuarded_AllGuardsPass_HandlerRuns(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), GroupOnly(), AdminOnly(false))

	err := guarded(context.Background(), groupMessage("hola", adminUser()))
	require.NoError(t, err)
	assert.Equal(t, 1, invoked)
}

func TestAdminOnly_NonAdminInGroup_Rejected(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), AdminOnly(false))

	err := guarded(context.Background(), groupMessage("hola", plainUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
	assert.Empty(t, adapter.sent)
}

func TestAdminOnly_WithNegative_RejectionReplies(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), AdminOnly(true))

	err := guarded(context.Background(), groupMessage("hola", plainUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
	assert.Len(t, adapter.sent, 1)
}

func TestAdminOnly_PrivateChat_AlwaysPasses(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), AdminOnly(true))

	message := models.NewMessage(models.PlatformDiscord, "msg-1")
	message.Author = plainUser()
	message.Chat = privateChat()
	err := guarded(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, 1, invoked)
}

func TestGroupOnly_PrivateChat_Rejected(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), GroupOnly())

	message := models.NewMessage(models.PlatformDiscord, "msg-1")
	message.Author = adminUser()
	message.Chat = privateChat()
	err := guarded(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestPrivateOnly_GroupChat_Rejected(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), PrivateOnly())

	err := guarded(context.Background(), groupMessage("hola", adminUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestBotMentioned_WantTrueWithoutMention_Rejected(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), BotMentioned(true))

	err := guarded(context.Background(), groupMessage("hola", adminUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestBotMentioned_WantTrueWithMention_Passes(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), BotMentioned(true))

	message := groupMessage("hola", adminUser())
	message.Mentions = []*models.User{adapter.Me()}
	err := guarded(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, 1, invoked)
}

func TestReplyOnly_NoReply_Rejected(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), ReplyOnly(true))

	err := guarded(context.Background(), groupMessage("hola", adminUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestIgnoreSelf_OwnMessage_Rejected(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), IgnoreSelf())

	err := guarded(context.Background(), groupMessage("hola", adapter.Me()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestBlock_AlwaysRejects(t *testing.T) {
	engine, _, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), Block())

	err := guarded(context.Background(), groupMessage("hola", adminUser()))
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
}

func TestOutOfService_BotAddressed_Apologizes(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), OutOfService())

	message := groupMessage("hola", adminUser())
	message.Mentions = []*models.User{adapter.Me()}
	err := guarded(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, 0, invoked)
	assert.Len(t, adapter.sent, 1)
}

func TestGuarded_RejectionOnButtonMessage_DismissesInteraction(t *testing.T) {
	engine, adapter, _ := newTestEngine()
	invoked := 0
	guarded := engine.Guarded(countingHandler(&invoked), Block())

	message := groupMessage("hola", plainUser())
	message.ButtonsInfo = &models.ButtonsInfo{Key: "key-1", PendingEventID: "interaction-1"}
	err := guarded(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.accepted)
}
