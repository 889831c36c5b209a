package core

import "github.com/agnivade/levenshtein"

// Score returns the similarity between two words in [0, 1]: 1 for equal
// strings, decreasing with edit distance relative to the longer word. The
// resolver only relies on the range and on closer strings scoring higher,
// not on this particular metric.
func Score(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}

// MatchWord returns the keywords of group that word matches with at least
// minScore, mapped to their scores. Empty when nothing clears the floor.
func MatchWord(word string, group []string, minScore float64) map[string]float64 {
	var matched map[string]float64
	for _, keyword := range group {
		if score := Score(word, keyword); score >= minScore {
			if matched == nil {
				matched = make(map[string]float64)
			}
			matched[keyword] = score
		}
	}
	return matched
}

// MatchWords compares every candidate word against every keyword in the
// group (cartesian product) and returns, per candidate word, the keywords
// it matched and their scores. Words with no match are absent from the
// result.
func MatchWords(candidates []string, group []string, minScore float64) map[string]map[string]float64 {
	matches := make(map[string]map[string]float64)
	for _, word := range candidates {
		if matched := MatchWord(word, group, minScore); matched != nil {
			matches[word] = matched
		}
	}
	return matches
}

// bestScore returns the highest score in a MatchWord result.
func bestScore(matched map[string]float64) float64 {
	var best float64
	for _, score := range matched {
		if score > best {
			best = score
		}
	}
	return best
}
