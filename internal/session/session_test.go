package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"doc-qa-go/internal/index"
	"doc-qa-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingBuild(calls *int32, delay time.Duration) BuildFunc {
	return func(_ context.Context, sessionID string) (index.Index, *model.BuildSummary, error) {
		atomic.AddInt32(calls, 1)
		time.Sleep(delay)
		return index.NewMemory("m"), &model.BuildSummary{Chunks: 3, Model: "m"}, nil
	}
}

func TestEnsureBuilt_BuildsOnce(t *testing.T) {
	st := NewState("s")
	var calls int32

	idx1, sum1, built, err := st.EnsureBuilt(context.Background(), countingBuild(&calls, 0))
	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, 3, sum1.Chunks)

	idx2, _, built, err := st.EnsureBuilt(context.Background(), countingBuild(&calls, 0))
	require.NoError(t, err)
	assert.False(t, built)
	assert.Same(t, idx1, idx2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, st.Ready())
}

func TestEnsureBuilt_ConcurrentCallersShareOneBuild(t *testing.T) {
	st := NewState("s")
	var calls int32
	var wg sync.WaitGroup
	var builtCount int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, built, err := st.EnsureBuilt(context.Background(), countingBuild(&calls, 20*time.Millisecond))
			assert.NoError(t, err)
			if built {
				atomic.AddInt32(&builtCount, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&builtCount))
}

func TestEnsureBuilt_FailureStoresNothingAndRetries(t *testing.T) {
	st := NewState("s")
	failing := func(context.Context, string) (index.Index, *model.BuildSummary, error) {
		return nil, nil, model.ErrSourceUnavailable
	}
	_, _, _, err := st.EnsureBuilt(context.Background(), failing)
	assert.True(t, errors.Is(err, model.ErrSourceUnavailable))
	assert.False(t, st.Ready())

	var calls int32
	_, _, built, err := st.EnsureBuilt(context.Background(), countingBuild(&calls, 0))
	require.NoError(t, err)
	assert.True(t, built)
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()
	a := store.Create()
	b := store.Create()
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, store.Len())

	got, err := store.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)

	_, err = store.Get("missing")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}
