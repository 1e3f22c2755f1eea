package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSplitter_Validation(t *testing.T) {
	_, err := NewSplitter(0, 0)
	assert.Error(t, err)
	_, err = NewSplitter(100, 100)
	assert.Error(t, err)
	_, err = NewSplitter(100, -1)
	assert.Error(t, err)

	s, err := NewSplitter(100, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, s.Size())
	assert.Equal(t, 0, s.Overlap())
}

func TestSplit_EmptyText(t *testing.T) {
	s, _ := NewSplitter(1000, 200)
	assert.Nil(t, s.Split(""))
	assert.Equal(t, 0, s.ExpectedChunks(0))
}

func TestSplit_ShortTextIsOneChunk(t *testing.T) {
	s, _ := NewSplitter(1000, 200)
	text := strings.Repeat("a", 999)
	chunks := s.Split(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])

	chunks = s.Split(strings.Repeat("b", 1000))
	assert.Len(t, chunks, 1)
}

func TestSplit_2500Chars(t *testing.T) {
	s, _ := NewSplitter(1000, 200)
	var sb strings.Builder
	for i := 0; i < 2500; i++ {
		sb.WriteByte(byte('a' + i%26))
	}
	text := sb.String()

	chunks := s.Split(text)
	// 1 + ceil(1500/800) = 3
	require.Len(t, chunks, 3)
	assert.Equal(t, 3, s.ExpectedChunks(2500))
	assert.Equal(t, text[0:1000], chunks[0])
	assert.Equal(t, text[800:1800], chunks[1])
	assert.Equal(t, text[1600:2500], chunks[2])
}

func TestSplit_OverlapInvariant(t *testing.T) {
	s, _ := NewSplitter(10, 3)
	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	chunks := s.Split(text)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10, "chunk %d too long", i)
		assert.Contains(t, text, c)
		if i > 0 {
			prev := []rune(chunks[i-1])
			cur := []rune(c)
			assert.Equal(t, string(prev[len(prev)-3:]), string(cur[:3]), "chunk %d overlap", i)
		}
	}
	assert.True(t, strings.HasSuffix(text, chunks[len(chunks)-1]))
}

func TestSplit_CountsMatchFormula(t *testing.T) {
	configs := []struct{ size, overlap int }{{1000, 200}, {10, 3}, {7, 0}, {5, 4}}
	for _, cfg := range configs {
		s, err := NewSplitter(cfg.size, cfg.overlap)
		require.NoError(t, err)
		for n := 0; n <= 3*cfg.size+7; n++ {
			text := strings.Repeat("x", n)
			assert.Equal(t, s.ExpectedChunks(n), len(s.Split(text)), "size=%d overlap=%d n=%d", cfg.size, cfg.overlap, n)
		}
	}
}

func TestSplit_MultiByteRunes(t *testing.T) {
	s, _ := NewSplitter(4, 1)
	chunks := s.Split("文档问答系统测试")
	require.Len(t, chunks, 3)
	assert.Equal(t, "文档问答", chunks[0])
	assert.Equal(t, "答系统测", chunks[1])
	assert.Equal(t, "测试", chunks[2])
}
