package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer splits text into normalized terms. Numbers followed by a dose unit
// are joined, so "400 mg" and "400mg" produce the same term.
type Tokenizer struct {
	stopwords map[string]struct{}
	useStem   bool
}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer(useStemming bool) *Tokenizer {
	return &Tokenizer{
		stopwords: defaultStopwords(),
		useStem:   useStemming,
	}
}

var doseUnits = map[string]struct{}{
	"mg": {}, "g": {}, "mcg": {}, "µg": {}, "ug": {}, "ng": {},
	"ml": {}, "l": {}, "iu": {}, "kg": {}, "mmol": {},
}

// Tokenize splits text into tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(strings.ToLower(text))
	tokens := make([]string, 0, len(words))

	for i := 0; i < len(words); i++ {
		word := words[i]
		if isNumber(word) && i+1 < len(words) {
			if _, ok := doseUnits[words[i+1]]; ok {
				tokens = append(tokens, word+words[i+1])
				i++
				continue
			}
		}
		if len(word) < 2 {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		if t.useStem {
			word = Stem(word)
		}
		tokens = append(tokens, word)
	}

	return tokens
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// average word is about 1.3 tokens
	return int(float64(len(words)) * 1.3)
}

// Stem strips common English inflections. Terms containing digits are kept.
func Stem(word string) string {
	for _, r := range word {
		if unicode.IsDigit(r) {
			return word
		}
	}
	switch {
	case len(word) > 4 && strings.HasSuffix(word, "ies"):
		return word[:len(word)-3] + "y"
	case strings.HasSuffix(word, "sses"):
		return word[:len(word)-2]
	case len(word) > 5 && strings.HasSuffix(word, "ing"):
		return undouble(word[:len(word)-3])
	case len(word) > 4 && strings.HasSuffix(word, "ed"):
		return undouble(word[:len(word)-2])
	case len(word) > 3 && strings.HasSuffix(word, "s") && !strings.HasSuffix(word, "ss") && !strings.HasSuffix(word, "us"):
		return word[:len(word)-1]
	}
	return word
}

// undouble turns "runn" into "run".
func undouble(stem string) string {
	n := len(stem)
	if n >= 3 && stem[n-1] == stem[n-2] && !strings.ContainsRune("aeioulsz", rune(stem[n-1])) {
		return stem[:n-1]
	}
	return stem
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == 'µ' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// defaultStopwords returns a set of common English stopwords.
func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "you", "your", "we", "our",
		"they", "their", "if", "or", "so", "can", "do", "does",
		"been", "being", "would", "could", "should", "which",
		"what", "when", "where", "how", "also", "than", "very",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
