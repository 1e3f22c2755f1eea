package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIndexBuilt(t *testing.T) {
	e := NewIndexBuilt("s1", 3, 42, "text-embedding-004", 1500*time.Millisecond)
	assert.Equal(t, TypeIndexBuilt, e.Type)
	assert.Equal(t, int64(1500), e.DurationMs)
	assert.False(t, e.OccurredAt.IsZero())

	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"session_id":"s1"`)
	assert.Contains(t, string(b), `"chunks":42`)
}

func TestNewQuestionAnswered(t *testing.T) {
	e := NewQuestionAnswered("s1", "What is alpha?", 4, 2*time.Second)
	assert.Equal(t, TypeQuestionAnswered, e.Type)
	assert.Equal(t, int64(2000), e.ElapsedMs)
	assert.Equal(t, 4, e.Chunks)
}
