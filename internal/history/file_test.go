package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/virtual-mascot/internal/chat"
)

func newStore(t *testing.T, max int) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "conversation_history.json"), max, zerolog.Nop())
}

func turnN(i int) chat.Turn {
	return chat.Turn{
		Timestamp: time.Date(2025, 1, 1, 0, i%60, 0, 0, time.Local),
		Input:     fmt.Sprintf("in-%d", i),
		Response:  fmt.Sprintf("out-%d", i),
	}
}

func TestColdStart(t *testing.T) {
	s := newStore(t, 10)
	ctx := context.Background()

	assert.Empty(t, s.Recent(ctx, 2))
	assert.NotNil(t, s.Recent(ctx, 2))
	assert.Empty(t, s.All(ctx))
}

func TestAppendAndRecentRoundTrip(t *testing.T) {
	s := newStore(t, 10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, turnN(i)))
	}

	for n := 1; n <= 5; n++ {
		got := s.Recent(ctx, n)
		require.Len(t, got, n)
		for j, turn := range got {
			want := turnN(5 - n + j)
			assert.Equal(t, want.Input, turn.Input)
			assert.Equal(t, want.Response, turn.Response)
			assert.True(t, want.Timestamp.Equal(turn.Timestamp))
		}
	}

	assert.Len(t, s.Recent(ctx, 50), 5)
	assert.Empty(t, s.Recent(ctx, 0))
}

func TestAppendAtCapDropsOldest(t *testing.T) {
	s := newStore(t, 100)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Append(ctx, turnN(i)))
	}
	require.Len(t, s.All(ctx), 100)

	require.NoError(t, s.Append(ctx, turnN(100)))

	all := s.All(ctx)
	require.Len(t, all, 100)
	assert.Equal(t, "in-1", all[0].Input)
	assert.Equal(t, "in-100", all[99].Input)
}

func TestAppendOverCapTrimsToCap(t *testing.T) {
	s := newStore(t, 100)
	ctx := context.Background()

	// A log written under a larger cap holds 101 entries.
	big := NewFileStore(s.Path(), 200, zerolog.Nop())
	for i := 0; i < 101; i++ {
		require.NoError(t, big.Append(ctx, turnN(i)))
	}

	require.NoError(t, s.Append(ctx, turnN(101)))

	all := s.All(ctx)
	require.Len(t, all, 100)
	assert.Equal(t, "in-2", all[0].Input)
	assert.Equal(t, "in-101", all[99].Input)
}

func TestFileFormat(t *testing.T) {
	s := newStore(t, 10)
	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	require.NoError(t, s.Append(context.Background(), chat.Turn{Timestamp: ts, Input: "東京の<天気>", Response: "晴れ & 暑い"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)

	assert.True(t, strings.HasPrefix(text, "[\n  {"))
	assert.Contains(t, text, `"time": "2025-03-04 05:06"`)
	assert.Contains(t, text, `"input": "東京の<天気>"`)
	assert.Contains(t, text, `"response": "晴れ & 暑い"`)
}

func TestCorruptFileIsTreatedAsEmpty(t *testing.T) {
	s := newStore(t, 10)
	ctx := context.Background()
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))

	assert.Empty(t, s.Recent(ctx, 2))

	require.NoError(t, s.Append(ctx, turnN(1)))
	all := s.All(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "in-1", all[0].Input)
}

func TestLegacyRecordsAreReadable(t *testing.T) {
	s := newStore(t, 10)
	legacy := `[{"timestamp": 1700000000.0, "user_input": "やあ", "mascot_response": "こんにちは"}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(legacy), 0o644))

	got := s.Recent(context.Background(), 2)
	require.Len(t, got, 1)
	assert.Equal(t, "やあ", got[0].Input)
	assert.Equal(t, "こんにちは", got[0].Response)
}

func TestWriteFailureIsReported(t *testing.T) {
	dir := t.TempDir()
	// The log path is a directory, so the final rename must fail.
	path := filepath.Join(dir, "log.json")
	require.NoError(t, os.MkdirAll(filepath.Join(path, "child"), 0o755))

	s := NewFileStore(path, 10, zerolog.Nop())
	err := s.Append(context.Background(), turnN(1))
	assert.ErrorIs(t, err, chat.ErrHistoryWrite)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestConcurrentAppendsAreNotLost(t *testing.T) {
	s := newStore(t, 1000)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, turnN(i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.All(ctx), 20)
}
