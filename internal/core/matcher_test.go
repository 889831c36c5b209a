package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_EqualWords_ReturnsOne(t *testing.T) {
	assert.Equal(t, 1.0, Score("banea", "banea"))
}

func TestScore_EmptyWords_ReturnsOne(t *testing.T) {
	assert.Equal(t, 1.0, Score("", ""))
}

func TestScore_DisjointWords_NearZero(t *testing.T) {
	score := Score("abc", "xyz")
	assert.InDelta(t, 0.0, score, 0.001)
}

func TestScore_SingleEditOnLongWord_High(t *testing.T) {
	score := Score("configuracion", "configuracio")
	assert.Greater(t, score, 0.9)
	assert.Less(t, score, 1.0)
}

func TestScore_Symmetric(t *testing.T) {
	assert.Equal(t, Score("banea", "banealo"), Score("banealo", "banea"))
}

func TestMatchWord_ExactMatch_Scored(t *testing.T) {
	matched := MatchWord("banea", []string{"ban", "banea", "banealo"}, 0.93)
	assert.Equal(t, map[string]float64{"banea": 1.0}, matched)
}

func TestMatchWord_NothingClearsFloor_ReturnsNil(t *testing.T) {
	matched := MatchWord("hola", []string{"ban", "banea"}, 0.93)
	assert.Nil(t, matched)
}

func TestMatchWord_LowFloor_CollectsSeveral(t *testing.T) {
	matched := MatchWord("banea", []string{"ban", "banea", "banealo"}, 0.5)
	assert.Len(t, matched, 3)
	assert.Equal(t, 1.0, matched["banea"])
}

func TestMatchWords_OnlyMatchingWordsPresent(t *testing.T) {
	matches := MatchWords([]string{"banea", "hola"}, []string{"ban", "banea"}, 0.93)
	assert.Len(t, matches, 1)
	assert.Contains(t, matches, "banea")
}

func TestBestScore_PicksHighest(t *testing.T) {
	best := bestScore(map[string]float64{"a": 0.4, "b": 0.9, "c": 0.7})
	assert.Equal(t, 0.9, best)
}
