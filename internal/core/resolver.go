package core

import (
	"math"
	"sort"

	"github.com/multibot-dev/multibot/pkg/constants"
)

// Resolver scores free-form text against a registry's keyword groups and
// determines which callbacks a dispatch should invoke.
type Resolver struct {
	// RewardExponent amplifies strong word matches: each matched word
	// contributes (best_score + 1) ^ RewardExponent
	RewardExponent float64
	// LengthPenalty divides a group's score by LengthPenalty * len(group),
	// floored at 1, so synonym-heavy groups don't dominate
	LengthPenalty float64
	// MinimumScoreToMatch is the floor the top candidate must clear when
	// several callbacks competed
	MinimumScoreToMatch float64
}

// NewResolver returns a resolver with the stock tuning.
func NewResolver() *Resolver {
	return &Resolver{
		RewardExponent:      constants.ScoreRewardExponent,
		LengthPenalty:       constants.KeywordLengthPenalty,
		MinimumScoreToMatch: constants.MinimumScoreToMatch,
	}
}

// scoredCandidate pairs a matched registration with its total score.
type scoredCandidate struct {
	callback *RegisteredCallback
	score    float64
}

// Resolve returns the callbacks to invoke for text, in registration order.
//
// Always-callbacks are included unconditionally. Among the scored
// registrations, at most one wins; when the top two candidates tie on both
// score and priority the resolver fails closed with an AmbiguityError
// instead of guessing. With no winner above threshold, default callbacks
// fire instead.
func (rv *Resolver) Resolve(text string, callbacks []*RegisteredCallback) ([]*RegisteredCallback, error) {
	originalWords := NormalizeWords(text)
	importantWords := removeCommonWords(originalWords)
	inWorkingSet := make(map[string]struct{}, len(importantWords))
	for _, word := range importantWords {
		inWorkingSet[word] = struct{}{}
	}

	// Best-scoring registration per callback name; the same handler may be
	// registered under several phrasings.
	candidates := make(map[string]scoredCandidate)
	var alwaysSelected, defaultSelected []*RegisteredCallback

	for _, callback := range callbacks {
		switch {
		case callback.Always:
			alwaysSelected = append(alwaysSelected, callback)
		case callback.Default:
			defaultSelected = append(defaultSelected, callback)
		default:
			matchedGroups := 0
			totalScore := 0.0
			for _, group := range callback.Keywords {
				// Re-admit stop words that look like domain keywords; the
				// stoplist is deliberately aggressive and this repairs it
				// for short command words.
				for _, word := range originalWords {
					if _, present := inWorkingSet[word]; present {
						continue
					}
					if MatchWord(word, group, callback.MinScore) != nil {
						importantWords = append(importantWords, word)
						inWorkingSet[word] = struct{}{}
					}
				}

				wordMatches := MatchWords(importantWords, group, callback.MinScore)
				groupScore := 0.0
				for _, matched := range wordMatches {
					groupScore += math.Pow(bestScore(matched)+1, rv.RewardExponent)
				}
				divisor := rv.LengthPenalty * float64(len(group))
				if divisor < 1 {
					divisor = 1
				}
				groupScore /= divisor
				if groupScore > 0 {
					totalScore += groupScore
					matchedGroups++
				}
			}

			// Every AND-ed group must have matched; a callback with no
			// keyword groups never becomes a scored candidate.
			if matchedGroups == 0 || matchedGroups != len(callback.Keywords) {
				continue
			}
			if previous, seen := candidates[callback.Name]; !seen || totalScore > previous.score {
				candidates[callback.Name] = scoredCandidate{callback: callback, score: totalScore}
			}
		}
	}

	ranked := make([]scoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		ranked = append(ranked, candidate)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return ranked[i].callback.Priority < ranked[j].callback.Priority
	})

	var winner *RegisteredCallback
	switch {
	case len(ranked) == 1:
		winner = ranked[0].callback
	case len(ranked) >= 2 && ranked[len(ranked)-1].score >= rv.MinimumScoreToMatch:
		top := ranked[len(ranked)-1]
		runnerUp := ranked[len(ranked)-2]
		if top.score == runnerUp.score && top.callback.Priority == runnerUp.callback.Priority {
			return nil, &AmbiguityError{First: top.callback.Name, Second: runnerUp.callback.Name}
		}
		winner = top.callback
	}

	selected := make(map[*RegisteredCallback]struct{})
	for _, callback := range alwaysSelected {
		selected[callback] = struct{}{}
	}
	if winner != nil {
		selected[winner] = struct{}{}
	} else {
		for _, callback := range defaultSelected {
			selected[callback] = struct{}{}
		}
	}

	// Preserve registration order in the output.
	var determined []*RegisteredCallback
	for _, callback := range callbacks {
		if _, ok := selected[callback]; ok {
			determined = append(determined, callback)
		}
	}
	return determined, nil
}
