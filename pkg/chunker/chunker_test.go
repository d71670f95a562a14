package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitWindowAndOverlap(t *testing.T) {
	c := New(10, 3)
	text := strings.Repeat("a", 25)
	chunks := c.Split(text)

	// advance = 7: [0,10) [7,17) [14,24) [21,25)
	require.Len(t, chunks, 4)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 10, chunks[0].End)
	assert.Equal(t, 7, chunks[1].Start)
	assert.Equal(t, 17, chunks[1].End)
	assert.Equal(t, 14, chunks[2].Start)
	assert.Equal(t, 21, chunks[3].Start)
	// final partial window kept
	assert.Equal(t, 25, chunks[3].End)
	assert.Equal(t, 4, len(chunks[3].Text))
}

func TestSplitContiguousIndexes(t *testing.T) {
	c := New(50, 10)
	chunks := c.Split(strings.Repeat("x", 500))
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
	}
	// [start,end) intervals cover the whole text
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 500, chunks[len(chunks)-1].End)
	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i].Start, chunks[i-1].End)
	}
}

func TestSplitShortText(t *testing.T) {
	c := New(100, 20)
	chunks := c.Split("short text")
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
	assert.Equal(t, 10, chunks[0].End)
}

func TestSplitEmpty(t *testing.T) {
	c := New(100, 20)
	assert.Nil(t, c.Split(""))
}

func TestSplitDeterministic(t *testing.T) {
	c := New(32, 8)
	text := strings.Repeat("DashMart delivers groceries fast. ", 20)
	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestSplitMultibyte(t *testing.T) {
	c := New(4, 1)
	chunks := c.Split("配送范围五公里")
	require.NotEmpty(t, chunks)
	// offsets are rune based, no broken characters
	for _, chunk := range chunks {
		assert.Equal(t, chunk.End-chunk.Start, len([]rune(chunk.Text)))
	}
	assert.Equal(t, 7, chunks[len(chunks)-1].End)
}

func TestNewGuards(t *testing.T) {
	c := New(0, -5)
	assert.Equal(t, DefaultChunkSize, c.ChunkSize())
	assert.Equal(t, 0, c.Overlap())

	// overlap >= chunkSize would stall the window
	c = New(100, 100)
	assert.Less(t, c.Overlap(), c.ChunkSize())
}
