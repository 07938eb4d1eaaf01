package tokenizer

import (
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tokens := Tokenize("The quick-brown Fox!")
	want := []string{"the", "quick", "brown", "fox"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, w := range want {
		if string(tokens[i].Word) != w {
			t.Errorf("token %d: got %q, want %q", i, tokens[i].Word, w)
		}
		if tokens[i].Position != uint32(i) {
			t.Errorf("token %d: position %d", i, tokens[i].Position)
		}
	}
}

func TestTokenizeEmpty(t *testing.T) {
	got := Tokenize("  ... !!! ")
	if len(got) != 0 {
		t.Errorf("expected no tokens, got %v", got)
	}
	// Callers distinguish "field present but empty" from "no field" by
	// slice nilness.
	if got == nil {
		t.Error("expected a non-nil slice")
	}
}

func TestTokenizeSkipsOverlongWords(t *testing.T) {
	long := strings.Repeat("a", maxWordLength+1)
	tokens := Tokenize("ok " + long + " fine")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if string(tokens[1].Word) != "fine" || tokens[1].Position != 1 {
		t.Errorf("positions must stay contiguous after a skip: %v", tokens[1])
	}
}

func TestTokenizeKeepsDigits(t *testing.T) {
	tokens := Tokenize("area 51")
	if len(tokens) != 2 || string(tokens[1].Word) != "51" {
		t.Errorf("digits should be kept: %v", tokens)
	}
}
