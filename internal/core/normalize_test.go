package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveAccents_SpanishVowels_Stripped(t *testing.T) {
	result := RemoveAccents("menú canción ñoño")
	assert.Equal(t, "menu cancion nono", result)
}

func TestRemoveAccents_PlainASCII_Unchanged(t *testing.T) {
	result := RemoveAccents("hello world")
	assert.Equal(t, "hello world", result)
}

func TestNormalizeWords_Lowercases(t *testing.T) {
	words := NormalizeWords("BANEA a Ese")
	assert.Equal(t, []string{"banea", "a", "ese"}, words)
}

func TestNormalizeWords_InterrogationPunctuation_BecomesSeparator(t *testing.T) {
	words := NormalizeWords("¿banealo? ¡ya!")
	assert.Equal(t, []string{"banealo", "ya"}, words)
}

func TestNormalizeWords_DuplicateWords_KeptOnce(t *testing.T) {
	words := NormalizeWords("no no no")
	assert.Equal(t, []string{"no"}, words)
}

func TestNormalizeWords_OverlongWord_Dropped(t *testing.T) {
	long := strings.Repeat("a", 30)
	words := NormalizeWords("banea " + long)
	assert.Equal(t, []string{"banea"}, words)
}

func TestNormalizeWords_EmptyText_ReturnsNil(t *testing.T) {
	words := NormalizeWords("   ")
	assert.Nil(t, words)
}

func TestRemoveCommonWords_Stoplist_Filtered(t *testing.T) {
	kept := removeCommonWords([]string{"banea", "a", "ese", "usuario"})
	assert.Equal(t, []string{"banea", "usuario"}, kept)
}

func TestRemoveCommonWords_AllCommon_ReturnsNil(t *testing.T) {
	kept := removeCommonWords([]string{"a", "el", "the"})
	assert.Nil(t, kept)
}
