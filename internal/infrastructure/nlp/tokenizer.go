package nlp

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// UnknownTokenSymbol is the symbol the reference tokenizer maps
// unrepresentable words to.
const UnknownTokenSymbol = "[UNK]"

// VocabTokenizer approximates the behavior of a wordpiece-style reference
// tokenizer: it lowercases, splits on non-alphanumeric runes, and maps words
// it cannot represent to the unknown symbol. Without an explicit vocabulary
// any plain ASCII word is considered representable; with one, membership
// decides.
type VocabTokenizer struct {
	vocab map[string]struct{}
}

func NewVocabTokenizer() *VocabTokenizer {
	return &VocabTokenizer{}
}

// LoadVocabTokenizer reads a vocabulary file with one token per line.
func LoadVocabTokenizer(path string) (*VocabTokenizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocab file: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]struct{}, 4096)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}
		vocab[strings.ToLower(token)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocab file: %w", err)
	}
	return &VocabTokenizer{vocab: vocab}, nil
}

func (t *VocabTokenizer) UnknownToken() string { return UnknownTokenSymbol }

func (t *VocabTokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		if t.representable(word) {
			out = append(out, word)
			continue
		}
		out = append(out, UnknownTokenSymbol)
	}
	return out
}

func (t *VocabTokenizer) representable(word string) bool {
	if len(t.vocab) > 0 {
		_, ok := t.vocab[word]
		return ok
	}
	for _, r := range word {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func splitWords(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
