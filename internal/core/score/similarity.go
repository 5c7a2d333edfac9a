// Package score computes lexical and phonetic similarity between a
// candidate name and catalog matches, plus an offline uniqueness grade
// for the candidate itself.
package score

import (
	"sort"
	"strings"

	"github.com/bandradar/bandradar/internal/core"
)

// Blend weights for overall similarity. Exact lexical match dominates;
// phonetics is the fallback signal when names "sound the same".
const (
	lexicalWeight  = 0.55
	phoneticWeight = 0.25
	tokenWeight    = 0.20
)

// Match type thresholds.
const (
	exactThreshold   = 0.97
	phoneticLexMin   = 0.6
	partialThreshold = 0.5
	fuzzyThreshold   = 0.3
)

// Compare scores a candidate name against one existing name.
func Compare(candidate, other string) core.SimilarityScore {
	candNorm := core.NormalizeName(candidate)
	otherNorm := core.NormalizeName(other)

	editDist := levenshtein(sortedTokenJoin(candNorm), sortedTokenJoin(otherNorm))
	lexical := normalizedLexical(candNorm, otherNorm, editDist)
	phonetic := PhoneticSimilarity(candNorm, otherNorm)
	overlap := tokenOverlap(candNorm, otherNorm)

	overall := lexicalWeight*lexical + phoneticWeight*phonetic + tokenWeight*overlap
	if lexical >= exactThreshold {
		overall = lexical
	}
	if overall > 1 {
		overall = 1
	}

	matchType := classify(lexical, phonetic, overlap)

	return core.SimilarityScore{
		OverallSimilarity:  overall,
		PhoneticSimilarity: phonetic,
		EditDistance:       editDist,
		TokenSimilarity:    overlap,
		Confidence:         scoreConfidence(matchType, overall),
		MatchType:          matchType,
	}
}

// ScoreMatches scores the candidate against every aggregated match,
// in match order.
func ScoreMatches(candidate string, matches []core.PlatformMatch) []core.SimilarityScore {
	scores := make([]core.SimilarityScore, len(matches))
	for i, match := range matches {
		scores[i] = Compare(candidate, match.Name)
	}
	return scores
}

// classify picks the match type by thresholds: exact lexical first,
// phonetic code agreement with moderate lexical support next, then
// token overlap, then weak fuzzy similarity.
func classify(lexical, phonetic, overlap float64) core.MatchType {
	switch {
	case lexical >= exactThreshold:
		return core.MatchExact
	case phonetic >= 1 && lexical >= phoneticLexMin:
		return core.MatchPhonetic
	case overlap >= partialThreshold:
		return core.MatchPartial
	case lexical >= fuzzyThreshold:
		return core.MatchFuzzy
	default:
		return core.MatchNone
	}
}

func scoreConfidence(matchType core.MatchType, overall float64) float64 {
	switch matchType {
	case core.MatchExact:
		return 0.95
	case core.MatchPhonetic:
		return 0.8
	case core.MatchPartial:
		return 0.65
	case core.MatchFuzzy:
		return 0.5
	default:
		return overall
	}
}

// normalizedLexical converts a token-level edit distance into [0,1].
// Identical normalized names short-circuit to 1 so that punctuation and
// casing differences still count as exact.
func normalizedLexical(a, b string, editDist int) float64 {
	if a == b || core.CanonicalName(a) == core.CanonicalName(b) {
		return 1
	}
	longest := len(sortedTokenJoin(a))
	if l := len(sortedTokenJoin(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}
	sim := 1 - float64(editDist)/float64(longest)
	if sim < 0 {
		return 0
	}
	return sim
}

// sortedTokenJoin reorders tokens alphabetically before comparison so
// word reordering ("Heroes Fallen" vs "Fallen Heroes") is tolerated.
func sortedTokenJoin(name string) string {
	tokens := strings.Fields(name)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenOverlap is the Jaccard ratio of the two token sets.
func tokenOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	common := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			common++
		}
	}

	union := len(setA) + len(setB) - common
	return float64(common) / float64(union)
}

func tokenSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, token := range strings.Fields(name) {
		set[core.CanonicalName(token)] = struct{}{}
	}
	delete(set, "")
	return set
}

// levenshtein computes the character edit distance with two rows.
func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
