package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", 100, 50))
	assert.Nil(t, Chunk("   \n\t  ", 100, 50))
	assert.Nil(t, Chunk("...!?", 100, 50))
}

func TestChunk_ShortInputSingleChunk(t *testing.T) {
	chunks := Chunk("The door motor runs on 110V", 100, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "The door motor runs on 110V.", chunks[0])
}

func TestChunk_ShortMultiSentence(t *testing.T) {
	chunks := Chunk("Check the brakes. Replace the pads!", 100, 50)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Check the brakes. Replace the pads.", chunks[0])
}

func TestChunk_SplitsAtTargetSize(t *testing.T) {
	text := "First sentence about traction. Second sentence about braking. Third sentence about doors."
	chunks := Chunk(text, 40, 0)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.True(t, strings.HasSuffix(c, "."))
	}
}

func TestChunk_CoversEverySentenceInOrder(t *testing.T) {
	sentences := []string{
		"The traction inverter converts DC to AC",
		"Brake calipers must be inspected weekly",
		"Door sensors report closure state",
		"The HVAC compressor draws 15A",
		"Signaling relays are sealed units",
	}
	text := strings.Join(sentences, ". ") + "."
	chunks := Chunk(text, 60, 0)

	joined := strings.Join(chunks, " ")
	lastIdx := -1
	for _, s := range sentences {
		idx := strings.Index(joined, s)
		require.GreaterOrEqual(t, idx, 0, "sentence missing: %s", s)
		assert.Greater(t, idx, lastIdx, "sentence out of order: %s", s)
		// with zero overlap each sentence appears exactly once
		assert.Equal(t, idx, strings.LastIndex(joined, s))
		lastIdx = idx
	}
}

func TestChunk_OverlapSeedsWordTail(t *testing.T) {
	text := "Alpha bravo charlie delta echo foxtrot. Golf hotel india juliett kilo lima."
	chunks := Chunk(text, 40, 30)
	require.Len(t, chunks, 2)
	// floor(30/10) = 3 words carried over from the closed chunk
	assert.True(t, strings.HasPrefix(chunks[1], "delta echo foxtrot "), "got %q", chunks[1])
}

func TestChunk_ZeroOverlapWordsWhenOverlapSmall(t *testing.T) {
	text := "Alpha bravo charlie delta. Echo foxtrot golf hotel."
	chunks := Chunk(text, 20, 5)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Echo foxtrot golf hotel.", chunks[1])
}

func TestChunk_OversizedSentenceEmittedWhole(t *testing.T) {
	long := strings.Repeat("word ", 100)
	chunks := Chunk(strings.TrimSpace(long), 50, 20)
	require.Len(t, chunks, 1)
	assert.Greater(t, len(chunks[0]), 50)
}

func TestChunk_NoBoundariesBelowTarget(t *testing.T) {
	chunks := Chunk("no terminator here", 100, 20)
	require.Len(t, chunks, 1)
	assert.Equal(t, "no terminator here.", chunks[0])
}
