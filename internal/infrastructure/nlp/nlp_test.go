package nlp

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestVocabTokenizerMapsForeignWordsToUnknown(t *testing.T) {
	tokenizer := NewVocabTokenizer()

	tokens := tokenizer.Tokenize("xyzzy_тест_🎉")
	unknown := 0
	for _, token := range tokens {
		if token == tokenizer.UnknownToken() {
			unknown++
		}
	}
	if unknown == 0 {
		t.Fatalf("expected unknown tokens, got %v", tokens)
	}
}

func TestVocabTokenizerKeepsASCIIWords(t *testing.T) {
	tokenizer := NewVocabTokenizer()

	tokens := tokenizer.Tokenize("Effects of Caffeine")
	want := []string{"effects", "of", "caffeine"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, tokens)
		}
	}
}

func TestLoadVocabTokenizerUsesMembership(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.txt")
	if err := os.WriteFile(path, []byte("alpha\nbeta\n"), 0o644); err != nil {
		t.Fatalf("write vocab: %v", err)
	}

	tokenizer, err := LoadVocabTokenizer(path)
	if err != nil {
		t.Fatalf("LoadVocabTokenizer() error = %v", err)
	}
	tokens := tokenizer.Tokenize("alpha gamma")
	if tokens[0] != "alpha" || tokens[1] != tokenizer.UnknownToken() {
		t.Fatalf("expected [alpha [UNK]], got %v", tokens)
	}
}

func TestStopwordSetRemove(t *testing.T) {
	set := NewStopwordSet()

	kept := set.Remove([]string{"what", "is", "the", "impact", "of", "caffeine"})
	if len(kept) != 2 || kept[0] != "impact" || kept[1] != "caffeine" {
		t.Fatalf("expected [impact caffeine], got %v", kept)
	}
}

func TestLoadStopwordFilterFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stopwords.yaml")
	if err := os.WriteFile(path, []byte("stopwords:\n  - foo\n  - bar\n"), 0o644); err != nil {
		t.Fatalf("write stopwords: %v", err)
	}

	set, err := LoadStopwordFilter(path)
	if err != nil {
		t.Fatalf("LoadStopwordFilter() error = %v", err)
	}
	kept := set.Remove([]string{"foo", "baz", "bar"})
	if len(kept) != 1 || kept[0] != "baz" {
		t.Fatalf("expected [baz], got %v", kept)
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func TestTimeFilterExtractorYesterday(t *testing.T) {
	extractor := newTimeFilterExtractorAt(fixedNow)

	cutoff, favorRecent := extractor.Extract("what changed yesterday in the deploy pipeline")
	if cutoff == nil {
		t.Fatalf("expected cutoff")
	}
	want := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	if !cutoff.Equal(want) {
		t.Fatalf("expected %v, got %v", want, cutoff)
	}
	if favorRecent {
		t.Fatalf("did not expect favor_recent")
	}
}

func TestTimeFilterExtractorPastNDays(t *testing.T) {
	extractor := newTimeFilterExtractorAt(fixedNow)

	cutoff, _ := extractor.Extract("incidents from the past 3 days")
	if cutoff == nil {
		t.Fatalf("expected cutoff")
	}
	want := fixedNow().AddDate(0, 0, -3)
	if !cutoff.Equal(want) {
		t.Fatalf("expected %v, got %v", want, cutoff)
	}
}

func TestTimeFilterExtractorRecentMarker(t *testing.T) {
	extractor := newTimeFilterExtractorAt(fixedNow)

	cutoff, favorRecent := extractor.Extract("most recent roadmap decisions")
	if cutoff != nil {
		t.Fatalf("expected no cutoff, got %v", cutoff)
	}
	if !favorRecent {
		t.Fatalf("expected favor_recent")
	}
}

func TestTimeFilterExtractorNoMarkers(t *testing.T) {
	extractor := newTimeFilterExtractorAt(fixedNow)

	cutoff, favorRecent := extractor.Extract("how does billing work")
	if cutoff != nil || favorRecent {
		t.Fatalf("expected neutral extraction, got %v %v", cutoff, favorRecent)
	}
}
