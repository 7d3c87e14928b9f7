package textsplitter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitTextEmpty(t *testing.T) {
	splitter := NewSentenceSplitter()
	assert.Empty(t, splitter.SplitText(""))
	assert.Empty(t, splitter.SplitText("   \n  "))
}

func TestSplitTextShortSingleChunk(t *testing.T) {
	splitter := NewSentenceSplitter()
	text := "Ibuprofen is a nonsteroidal anti-inflammatory drug. It relieves pain and fever."

	chunks := splitter.SplitText(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestSplitTextRespectsBudget(t *testing.T) {
	splitter := NewSentenceSplitter(WithChunkSize(100), WithChunkOverlap(20))

	var sb strings.Builder
	for i := 0; i < 30; i++ {
		sb.WriteString("This sentence describes adverse reactions. ")
	}

	chunks := splitter.SplitText(sb.String())
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 100)
		assert.NotEmpty(t, strings.TrimSpace(chunk))
	}
}

func TestSplitTextOverlap(t *testing.T) {
	splitter := NewSentenceSplitter(WithChunkSize(80), WithChunkOverlap(40))

	text := "First sentence about dosing. Second sentence about warnings. Third sentence about storage. Fourth sentence about interactions."
	chunks := splitter.SplitText(text)
	require.Greater(t, len(chunks), 1)

	// Consecutive chunks share at least one sentence.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		lastSentence := prev[strings.LastIndex(strings.TrimSuffix(prev, "."), ".")+1:]
		lastSentence = strings.TrimSpace(lastSentence)
		if lastSentence != "" && len(lastSentence) <= 40 {
			assert.Contains(t, chunks[i], lastSentence)
		}
	}
}

func TestSplitTextUnbrokenRun(t *testing.T) {
	splitter := NewSentenceSplitter(WithChunkSize(50), WithChunkOverlap(0))

	chunks := splitter.SplitText(strings.Repeat("x", 200))
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 50)
	}
}

func TestSplitTextParagraphsPreferred(t *testing.T) {
	splitter := NewSentenceSplitter(WithChunkSize(60), WithChunkOverlap(0))

	text := "Short paragraph one about dosage.\n\nShort paragraph two about warnings."
	chunks := splitter.SplitText(text)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0], "paragraph one")
	assert.Contains(t, chunks[1], "paragraph two")
}

func TestSplitTextCustomSizer(t *testing.T) {
	sizer, err := NewTokenSizer("")
	if err != nil {
		t.Skip("tiktoken encoding data unavailable")
	}

	splitter := NewSentenceSplitter(WithChunkSize(10), WithChunkOverlap(0), WithSizer(sizer))
	chunks := splitter.SplitText("One short sentence. Another short sentence. A third short sentence here.")

	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, sizer.Size(chunk), 12)
	}
}

func TestRegexStrategySplitsSentences(t *testing.T) {
	strategy := NewRegexStrategy("")
	pieces := strategy.Split("First part. Second part. Third part.")
	assert.GreaterOrEqual(t, len(pieces), 3)
}

func TestNeurosnapStrategySplitsSentences(t *testing.T) {
	strategy, err := NewNeurosnapStrategy()
	require.NoError(t, err)

	pieces := strategy.Split("Take with food. Do not exceed the stated dose. Keep out of reach of children.")
	assert.Len(t, pieces, 3)
}
