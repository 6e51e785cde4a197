package rules_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeonmaster/internal/rules"
)

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	assert.Equal(t, []string{"hello world"}, rules.Split("  hello world ", 256, 50))
	assert.Nil(t, rules.Split("   ", 256, 50))
}

func TestSplit_PrefersSentenceBoundaries(t *testing.T) {
	text := strings.Repeat("这是一个句子。", 20) // 140 runes
	chunks := rules.Split(text, 50, 10)
	require.Greater(t, len(chunks), 2)
	for _, c := range chunks[:len(chunks)-1] {
		assert.True(t, strings.HasSuffix(c, "。"), "chunk %q should end on a sentence", c)
	}
}

func TestSplit_HardCutWithoutSeparators(t *testing.T) {
	text := strings.Repeat("x", 600)
	chunks := rules.Split(text, 256, 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, 256, len(chunks[0]))
	assert.Equal(t, strings.Repeat("x", 50), chunks[1][:50])
}

func TestPropertySplitBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[a-z。 ,.]{0,800}`).Draw(t, "text")
		size := rapid.IntRange(4, 300).Draw(t, "size")
		overlap := rapid.IntRange(0, size-1).Draw(t, "overlap")

		chunks := rules.Split(text, size, overlap)
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			if len(chunks) != 0 {
				t.Fatalf("blank text produced %d chunks", len(chunks))
			}
			return
		}
		if len(chunks) == 0 {
			t.Fatalf("non-blank text produced no chunks")
		}
		for _, c := range chunks {
			if c == "" || utf8.RuneCountInString(c) > size {
				t.Fatalf("chunk %q violates size %d", c, size)
			}
			if !strings.Contains(trimmed, c) {
				t.Fatalf("chunk %q is not a substring of the text", c)
			}
		}
		if !strings.HasSuffix(trimmed, chunks[len(chunks)-1]) {
			t.Fatalf("last chunk %q does not end the text", chunks[len(chunks)-1])
		}
	})
}
