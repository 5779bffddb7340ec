package nlp

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultStopwords is a compact English function-word list. A deployment can
// replace it with a YAML file via LoadStopwordFilter.
var defaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "been", "but", "by", "can",
	"did", "do", "does", "for", "from", "had", "has", "have", "how", "i",
	"if", "in", "into", "is", "it", "its", "me", "my", "no", "not", "of",
	"on", "or", "other", "our", "she", "so", "some", "such", "than", "that",
	"the", "their", "them", "then", "there", "these", "they", "this", "to",
	"was", "we", "were", "what", "when", "where", "which", "who", "why",
	"will", "with", "you", "your", "he", "her", "him", "his",
}

// StopwordSet filters function words out of whitespace-split queries.
type StopwordSet struct {
	words map[string]struct{}
}

func NewStopwordSet() *StopwordSet {
	return newStopwordSet(defaultStopwords)
}

type stopwordFile struct {
	Stopwords []string `yaml:"stopwords"`
}

// LoadStopwordFilter reads a YAML file of the form `stopwords: [a, the, ...]`.
func LoadStopwordFilter(path string) (*StopwordSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stopword file: %w", err)
	}
	var parsed stopwordFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse stopword file: %w", err)
	}
	if len(parsed.Stopwords) == 0 {
		return nil, fmt.Errorf("stopword file %s lists no words", path)
	}
	return newStopwordSet(parsed.Stopwords), nil
}

func newStopwordSet(words []string) *StopwordSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return &StopwordSet{words: set}
}

// Remove returns the words that are not stop words, preserving order.
func (s *StopwordSet) Remove(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		normalized := strings.ToLower(strings.Trim(word, ".,!?;:\"'"))
		if _, ok := s.words[normalized]; ok {
			continue
		}
		out = append(out, word)
	}
	return out
}
