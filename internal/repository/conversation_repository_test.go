package repository

import (
	"context"
	"fmt"
	"testing"

	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryConversationRepository_AppendAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()

	history, err := repo.GetConversationHistory(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, repo.AppendConversationHistory(ctx, "s1",
		model.ChatMessage{Role: "user", Content: "q"},
		model.ChatMessage{Role: "assistant", Content: "a"},
	))
	history, err = repo.GetConversationHistory(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "q", history[0].Content)
	assert.Equal(t, "assistant", history[1].Role)

	other, err := repo.GetConversationHistory(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryConversationRepository_KeepsLast20(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()
	for i := 0; i < 25; i++ {
		require.NoError(t, repo.AppendConversationHistory(ctx, "s", model.ChatMessage{Role: "user", Content: fmt.Sprint(i)}))
	}
	history, err := repo.GetConversationHistory(ctx, "s")
	require.NoError(t, err)
	require.Len(t, history, 20)
	assert.Equal(t, "5", history[0].Content)
	assert.Equal(t, "24", history[19].Content)
}

func TestMemoryConversationRepository_ReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryConversationRepository()
	require.NoError(t, repo.AppendConversationHistory(ctx, "s", model.ChatMessage{Content: "x"}))

	history, _ := repo.GetConversationHistory(ctx, "s")
	history[0].Content = "mutated"

	again, _ := repo.GetConversationHistory(ctx, "s")
	assert.Equal(t, "x", again[0].Content)
}
