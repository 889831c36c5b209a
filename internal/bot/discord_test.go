package bot

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/multibot-dev/multibot/internal/models"
)

func TestIdentityFields_NilUser_Empty(t *testing.T) {
	assert.Equal(t, logrus.Fields{}, identityFields(nil))
}

func TestIdentityFields_KnownUser_NameAndID(t *testing.T) {
	fields := identityFields(&models.User{
		Platform: models.PlatformDiscord,
		ID:       "42",
		Name:     "somebot",
	})
	assert.Equal(t, logrus.Fields{"bot_username": "somebot", "bot_id": "42"}, fields)
}
