package wordcount

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestFrequenciesBasic(t *testing.T) {
	tok := NewTokenizer(NewStopWordSet("the", "and"))
	got := tok.Frequencies("The quick brown fox and the quick dog")
	want := map[string]int{"quick": 2, "brown": 1, "fox": 1, "dog": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Frequencies = %v, want %v", got, want)
	}
}

func TestFrequenciesDeterministic(t *testing.T) {
	tok := NewTokenizer(NewStopWordSet("the"))
	msg := "The quick brown fox jumps over the lazy dog, quick quick!"
	first := tok.Frequencies(msg)
	second := tok.Frequencies(msg)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated tokenization diverged: %v vs %v", first, second)
	}
}

func TestFrequenciesCaseFold(t *testing.T) {
	tok := NewTokenizer(nil)
	got := tok.Frequencies("Hello HELLO hello")
	if got["hello"] != 3 {
		t.Errorf("hello count = %d, want 3", got["hello"])
	}
}

func TestFrequenciesLengthBounds(t *testing.T) {
	tok := NewTokenizer(nil)
	got := tok.Frequencies("ab abc abcdefghijklmnop abcdefghijklmnopq")
	if _, ok := got["ab"]; ok {
		t.Error("two-rune word should be dropped")
	}
	if got["abc"] != 1 {
		t.Error("three-rune word should be kept")
	}
	if got["abcdefghijklmnop"] != 1 {
		t.Error("sixteen-rune word should be kept")
	}
	if _, ok := got["abcdefghijklmnopq"]; ok {
		t.Error("seventeen-rune word should be dropped")
	}
}

func TestFrequenciesUnicodeRuneLength(t *testing.T) {
	tok := NewTokenizer(nil)
	// Three runes but more than three bytes.
	got := tok.Frequencies("日本語")
	if got["日本語"] != 1 {
		t.Errorf("rune-length bound should use runes, got %v", got)
	}
}

func TestFrequenciesStripsCommandsAndURLs(t *testing.T) {
	tok := NewTokenizer(nil)
	got := tok.Frequencies("!seen somebody check https://example.com/path after")
	if _, ok := got["seen"]; ok {
		t.Error("embedded command should be stripped")
	}
	if _, ok := got["somebody"]; !ok {
		t.Error("word after command should survive")
	}
	if _, ok := got["example"]; ok {
		t.Error("url should be stripped")
	}
	if _, ok := got["after"]; !ok {
		t.Error("word after url should survive")
	}
}

func TestFrequenciesSplitsOnDigitsAndPunctuation(t *testing.T) {
	tok := NewTokenizer(nil)
	got := tok.Frequencies("word123word other-thing under_score")
	want := map[string]int{"word": 2, "other": 1, "thing": 1, "under": 1, "score": 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Frequencies = %v, want %v", got, want)
	}
}

func TestLoadStopWords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stop.csv")
	if err := os.WriteFile(path, []byte("the,and,But\nwith, From\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	set, err := LoadStopWords(path)
	if err != nil {
		t.Fatalf("LoadStopWords: %v", err)
	}
	for _, w := range []string{"the", "and", "but", "with", "from"} {
		if !set.Contains(w) {
			t.Errorf("set should contain %q", w)
		}
	}
	if set.Contains("fox") {
		t.Error("set should not contain fox")
	}
}

func TestLoadStopWordsMissingFile(t *testing.T) {
	if _, err := LoadStopWords(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
