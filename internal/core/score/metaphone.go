package score

import (
	"strings"

	"github.com/bandradar/bandradar/internal/core"
)

// PhoneticCode produces a metaphone-style consonant skeleton for a
// name. Two names with identical codes are considered to sound alike
// when spoken. The encoding is deliberately coarse: vowels survive only
// in leading position, and the usual English digraph collapses apply.
func PhoneticCode(name string) string {
	tokens := strings.Fields(core.NormalizeName(name))
	codes := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if code := encodeToken(core.CanonicalName(token)); code != "" {
			codes = append(codes, code)
		}
	}
	return strings.Join(codes, " ")
}

// PhoneticSimilarity compares per-token phonetic codes and returns the
// fraction of aligned tokens with identical codes. Same full code => 1.
func PhoneticSimilarity(a, b string) float64 {
	codeA := PhoneticCode(a)
	codeB := PhoneticCode(b)
	if codeA == "" || codeB == "" {
		return 0
	}
	if codeA == codeB {
		return 1
	}

	tokensA := strings.Fields(codeA)
	tokensB := strings.Fields(codeB)
	longest := len(tokensA)
	if len(tokensB) > longest {
		longest = len(tokensB)
	}

	matched := 0
	setB := make(map[string]int, len(tokensB))
	for _, t := range tokensB {
		setB[t]++
	}
	for _, t := range tokensA {
		if setB[t] > 0 {
			setB[t]--
			matched++
		}
	}
	return float64(matched) / float64(longest)
}

func isVowel(r byte) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	}
	return false
}

// encodeToken encodes a single lowercase alphanumeric token.
func encodeToken(token string) string {
	if token == "" {
		return ""
	}

	var b strings.Builder
	i := 0

	// Leading silent pairs: kn-, gn-, pn-, wr-, ps-.
	switch {
	case strings.HasPrefix(token, "kn"), strings.HasPrefix(token, "gn"),
		strings.HasPrefix(token, "pn"):
		i = 1
	case strings.HasPrefix(token, "wr"):
		i = 1
	case strings.HasPrefix(token, "ps"):
		i = 1
	case strings.HasPrefix(token, "x"):
		b.WriteByte('s')
		i = 1
	}

	for ; i < len(token); i++ {
		c := token[i]
		var next byte
		if i+1 < len(token) {
			next = token[i+1]
		}

		switch c {
		case 'a', 'e', 'i', 'o', 'u':
			if i == 0 {
				b.WriteByte('a')
			}
		case 'b':
			// Final -mb keeps the b silent.
			if !(i == len(token)-1 && i > 0 && token[i-1] == 'm') {
				writeDedup(&b, 'p')
			}
		case 'c':
			switch {
			case next == 'h':
				writeDedup(&b, 'x')
				i++
			case next == 'i' || next == 'e' || next == 'y':
				writeDedup(&b, 's')
			default:
				writeDedup(&b, 'k')
			}
		case 'd':
			if next == 'g' {
				writeDedup(&b, 'j')
				i++
			} else {
				writeDedup(&b, 't')
			}
		case 'g':
			switch {
			case next == 'h':
				// gh is silent except word-initially.
				if i == 0 {
					writeDedup(&b, 'k')
				}
				i++
			case next == 'n':
				// Silent in -gn.
				i++
				writeDedup(&b, 'n')
			case next == 'i' || next == 'e' || next == 'y':
				writeDedup(&b, 'j')
			default:
				writeDedup(&b, 'k')
			}
		case 'h':
			// Only audible between a consonant and a vowel.
			if i > 0 && !isVowel(token[i-1]) {
				continue
			}
			if next != 0 && isVowel(next) {
				writeDedup(&b, 'h')
			}
		case 'k':
			writeDedup(&b, 'k')
		case 'p':
			if next == 'h' {
				writeDedup(&b, 'f')
				i++
			} else {
				writeDedup(&b, 'p')
			}
		case 'q':
			writeDedup(&b, 'k')
		case 's':
			if next == 'h' {
				writeDedup(&b, 'x')
				i++
			} else {
				writeDedup(&b, 's')
			}
		case 't':
			if next == 'h' {
				writeDedup(&b, '0')
				i++
			} else {
				writeDedup(&b, 't')
			}
		case 'v':
			writeDedup(&b, 'f')
		case 'w', 'y':
			if next != 0 && isVowel(next) {
				writeDedup(&b, c)
			}
		case 'x':
			writeDedup(&b, 'k')
			writeDedup(&b, 's')
		case 'z':
			writeDedup(&b, 's')
		default:
			if c >= '0' && c <= '9' {
				b.WriteByte(c)
			} else {
				writeDedup(&b, c)
			}
		}
	}

	return b.String()
}

// writeDedup collapses doubled consonants ("ll" -> "l").
func writeDedup(b *strings.Builder, c byte) {
	s := b.String()
	if len(s) > 0 && s[len(s)-1] == c {
		return
	}
	b.WriteByte(c)
}
