package score

import (
	"strings"

	zxcvbn "github.com/ccojocar/zxcvbn-go"

	"github.com/bandradar/bandradar/internal/core"
)

// Uniqueness blend weights.
const (
	rarityWeight  = 0.45
	entropyWeight = 0.25
	lengthWeight  = 0.15
	countWeight   = 0.15
)

// entropyCeiling is the per-name entropy at which the entropy factor
// saturates. Beyond this a name is as unguessable as we care about.
const entropyCeiling = 40.0

// ScoreUniqueness grades a candidate name on its own merits, with no
// external evidence. Common dictionary words are penalized via zxcvbn
// guessability; unusual vocabulary, reasonable length and a compact
// word count are rewarded. Always computable offline.
func ScoreUniqueness(name string) core.UniquenessScore {
	normalized := core.NormalizeName(name)
	tokens := strings.Fields(normalized)

	uncommon := 0
	for _, token := range tokens {
		if isUncommonWord(token) {
			uncommon++
		}
	}

	rarity := 0.0
	if len(tokens) > 0 {
		rarity = float64(uncommon) / float64(len(tokens))
	}

	strength := zxcvbn.PasswordStrength(core.CanonicalName(normalized), nil)
	entropy := strength.Entropy / entropyCeiling
	if entropy > 1 {
		entropy = 1
	}

	length := lengthFactor(len(normalized))
	count := wordCountFactor(len(tokens))

	total := rarityWeight*rarity + entropyWeight*entropy + lengthWeight*length + countWeight*count
	if total > 1 {
		total = 1
	}

	return core.UniquenessScore{
		Score: total,
		Factors: map[string]float64{
			"word_rarity": rarity,
			"entropy":     entropy,
			"length":      length,
			"word_count":  count,
		},
		WordCount:      len(tokens),
		UncommonWords:  uncommon,
		Recommendation: uniquenessRecommendation(total),
	}
}

// isUncommonWord treats short tokens and anything zxcvbn can crack
// near-instantly as common vocabulary.
func isUncommonWord(token string) bool {
	cleaned := core.CanonicalName(token)
	if len(cleaned) <= 2 {
		return false
	}
	return zxcvbn.PasswordStrength(cleaned, nil).Score >= 2
}

// lengthFactor peaks for names between 5 and 30 characters and decays
// toward the extremes.
func lengthFactor(length int) float64 {
	switch {
	case length == 0:
		return 0
	case length < 3:
		return 0.2
	case length < 5:
		return 0.6
	case length <= 30:
		return 1
	case length <= 60:
		return 0.5
	default:
		return 0.2
	}
}

// wordCountFactor prefers one to three words.
func wordCountFactor(count int) float64 {
	switch {
	case count == 0:
		return 0
	case count <= 3:
		return 1
	case count <= 5:
		return 0.6
	default:
		return 0.3
	}
}

func uniquenessRecommendation(score float64) string {
	switch {
	case score >= 0.75:
		return "highly distinctive name, low collision risk"
	case score >= 0.5:
		return "reasonably distinctive, verify against catalogs"
	case score >= 0.25:
		return "contains common vocabulary, collisions likely"
	default:
		return "very common wording, expect many existing uses"
	}
}
