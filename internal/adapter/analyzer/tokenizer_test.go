package analyzer

import (
	"testing"
)

func contains(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

func TestTokenizer_DoseJoining(t *testing.T) {
	tok := NewTokenizer(true)

	spaced := tok.Tokenize("Take 400 mg every 6 hours")
	joined := tok.Tokenize("take 400mg every 6 hours")

	if !contains(spaced, "400mg") {
		t.Errorf("expected '400 mg' to become '400mg', got %v", spaced)
	}
	if !contains(joined, "400mg") {
		t.Errorf("expected '400mg' to be kept, got %v", joined)
	}
	if !contains(spaced, "hour") {
		t.Errorf("expected 'hours' to be stemmed to 'hour', got %v", spaced)
	}
}

func TestTokenizer_WithoutStemming(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("Ibuprofen tablets are dissolving")
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if !contains(tokens, "tablets") {
		t.Errorf("expected 'tablets' to remain unstemmed, got %v", tokens)
	}
	if !contains(tokens, "ibuprofen") {
		t.Errorf("expected lowercase 'ibuprofen', got %v", tokens)
	}
}

func TestTokenizer_StopwordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("What is the dosage for aspirin")
	for _, stop := range []string{"what", "is", "the", "for"} {
		if contains(tokens, stop) {
			t.Errorf("expected stopword %q to be removed, got %v", stop, tokens)
		}
	}
	if !contains(tokens, "dosage") || !contains(tokens, "aspirin") {
		t.Errorf("expected content words to remain, got %v", tokens)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"running":    "run",
		"doses":      "dose",
		"therapies":  "therapy",
		"prescribed": "prescrib",
		"nsaids":     "nsaid",
		"ibuprofen":  "ibuprofen",
		"class":      "class",
		"virus":      "virus",
		"400mg":      "400mg",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Errorf("Stem(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestCountTokens(t *testing.T) {
	tok := NewTokenizer(false)
	if n := tok.CountTokens(""); n != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", n)
	}
	if n := tok.CountTokens("one two three four five six seven eight nine ten"); n != 13 {
		t.Errorf("expected 13 tokens, got %d", n)
	}
}
