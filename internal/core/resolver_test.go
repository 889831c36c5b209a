package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multibot-dev/multibot/pkg/constants"
)

func resolverRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(constants.DefaultCallbackMinScore)
}

func names(callbacks []*RegisteredCallback) []string {
	var out []string
	for _, callback := range callbacks {
		out = append(out, callback.Name)
	}
	return out
}

func TestResolve_SingleMatch_Wins(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("hello", noopHandler, constants.Keywords["hello"], nil))

	resolved, err := NewResolver().Resolve("banea a ese tio", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"ban"}, names(resolved))
}

func TestResolve_SpanishPhraseWithStopWords_Matches(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("mute", noopHandler, constants.Keywords["mute"], nil))

	resolved, err := NewResolver().Resolve("banealo porfavor", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"ban"}, names(resolved))
}

func TestResolve_TwoEqualCandidates_AmbiguityError(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("mute", noopHandler, constants.Keywords["mute"], nil))

	_, err := NewResolver().Resolve("mutealo y banealo", registry.Callbacks())
	require.Error(t, err)

	ambiguity, ok := err.(*AmbiguityError)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"ban", "mute"}, []string{ambiguity.First, ambiguity.Second})
}

func TestResolve_HigherPriorityBreaksTie(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("mute", noopHandler, constants.Keywords["mute"], &CallbackOptions{Priority: 2}))

	resolved, err := NewResolver().Resolve("mutealo y banealo", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"mute"}, names(resolved))
}

func TestResolve_NoMatch_DefaultsFire(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("fallback", noopHandler, nil, &CallbackOptions{Default: true}))

	resolved, err := NewResolver().Resolve("qwertyuiop asdfgh", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"fallback"}, names(resolved))
}

func TestResolve_EmptyText_AlwaysAndDefaults(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("audit", noopHandler, nil, &CallbackOptions{Always: true}))
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))
	require.NoError(t, registry.Register("fallback", noopHandler, nil, &CallbackOptions{Default: true}))

	resolved, err := NewResolver().Resolve("", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "fallback"}, names(resolved))
}

func TestResolve_AlwaysCallback_JoinsWinner(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("audit", noopHandler, nil, &CallbackOptions{Always: true}))
	require.NoError(t, registry.Register("ban", noopHandler, constants.Keywords["ban"], nil))

	resolved, err := NewResolver().Resolve("banealo", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"audit", "ban"}, names(resolved))
}

func TestResolve_SameNameSeveralPhrasings_NoAmbiguity(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("mute", noopHandler, []string{"mute"}, nil))
	require.NoError(t, registry.Register("mute", noopHandler, []string{"silencia"}, nil))

	resolved, err := NewResolver().Resolve("mute silencia", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"mute"}, names(resolved))
}

func TestResolve_StopWordReadmission_MatchesKeywordGroup(t *testing.T) {
	// "se" is a stop word but also part of the keyword group; it must be
	// re-admitted for the group to match.
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("mute", noopHandler, [][]string{{"haz", "se"}, {"calle"}}, nil))

	resolved, err := NewResolver().Resolve("haz que se calle", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"mute"}, names(resolved))
}

func TestResolve_AllGroupsRequired_PartialMatchLoses(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("delete-message", noopHandler,
		[][]string{constants.Keywords["delete"], constants.Keywords["message"]}, nil))

	resolved, err := NewResolver().Resolve("borra eso", registry.Callbacks())
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolve_MultiGroupPhrase_Matches(t *testing.T) {
	registry := resolverRegistry(t)
	require.NoError(t, registry.Register("delete-message", noopHandler,
		[][]string{constants.Keywords["delete"], constants.Keywords["message"]}, nil))

	resolved, err := NewResolver().Resolve("borra el mensaje", registry.Callbacks())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete-message"}, names(resolved))
}

func TestResolve_NoCallbacks_EmptyResult(t *testing.T) {
	resolved, err := NewResolver().Resolve("banealo", nil)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
