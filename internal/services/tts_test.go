package services

import (
	"strings"
	"testing"
)

func TestChunkTextShortPassthrough(t *testing.T) {
	got := ChunkText("One short sentence.", 1950)
	if len(got) != 1 || got[0] != "One short sentence." {
		t.Fatalf("got %#v, want the text unchanged", got)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if got := ChunkText("   \n ", 1950); got != nil {
		t.Fatalf("got %#v, want nil", got)
	}
}

func TestChunkTextSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third one!"
	got := ChunkText(text, 25)
	for i, s := range got {
		if len(s) > 25 {
			t.Fatalf("slice %d exceeds limit: %d chars", i, len(s))
		}
		if s != strings.TrimSpace(s) {
			t.Fatalf("slice %d not trimmed: %q", i, s)
		}
	}
	if joined := strings.Join(got, " "); joined != text {
		t.Fatalf("content changed:\n got %q\nwant %q", joined, text)
	}
}

func TestChunkTextPacksSentences(t *testing.T) {
	// Two 10-char sentences fit one 25-char slice together.
	got := ChunkText("Aaaa bbbb. Cccc dddd. Eeee ffff.", 25)
	if len(got) != 2 {
		t.Fatalf("got %d slices (%#v), want 2", len(got), got)
	}
	if got[0] != "Aaaa bbbb. Cccc dddd." {
		t.Fatalf("first slice %q", got[0])
	}
}

func TestChunkTextOverlongSentence(t *testing.T) {
	// A single sentence past the limit splits on word boundaries.
	text := "word " + strings.Repeat("looooong ", 10) + "end."
	got := ChunkText(text, 30)
	if len(got) < 2 {
		t.Fatalf("expected multiple slices, got %#v", got)
	}
	for i, s := range got {
		if len(s) > 30 {
			t.Fatalf("slice %d exceeds limit: %q", i, s)
		}
	}
}

func TestChunkTextNoEmptySlices(t *testing.T) {
	got := ChunkText("A. B. C. D. E.", 4)
	for i, s := range got {
		if strings.TrimSpace(s) == "" {
			t.Fatalf("slice %d is empty", i)
		}
	}
}
