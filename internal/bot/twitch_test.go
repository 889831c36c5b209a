package bot

import (
	"context"
	"testing"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multibot-dev/multibot/internal/models"
)

func TestTwitchEvent_Author_LoginNameIsUserID(t *testing.T) {
	event := &twitchEvent{message: twitchirc.PrivateMessage{
		User: twitchirc.User{
			ID:          "123456789",
			Name:        "somebot",
			DisplayName: "SomeBot",
		},
	}}

	author, err := event.Author(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "somebot", author.ID)
	assert.Equal(t, "SomeBot", author.Name)
	assert.True(t, author.Equal(&models.User{
		Platform: models.PlatformTwitch,
		ID:       "somebot",
		Name:     "somebot",
	}))
}

func TestTwitchEvent_Author_BadgesGrantAdmin(t *testing.T) {
	event := &twitchEvent{message: twitchirc.PrivateMessage{
		User: twitchirc.User{
			Name:   "streamer",
			Badges: map[string]int{"broadcaster": 1},
		},
	}}

	author, err := event.Author(context.Background())
	require.NoError(t, err)
	assert.True(t, author.IsAdmin)
}
