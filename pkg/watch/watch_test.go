package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	_, err := New([]string{"a.json"}, nil)
	assert.Error(t, err)

	_, err = New([]string{"", ""}, func([]string) {})
	assert.Error(t, err)

	dir := t.TempDir()
	w, err := New([]string{filepath.Join(dir, "b.json"), filepath.Join(dir, "a.json"), ""}, func([]string) {})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json")}, w.Files())
	assert.Len(t, w.dirs, 1)
}

func TestRun_DebouncesBursts(t *testing.T) {
	if testing.Short() {
		t.Skip("filesystem notifications in -short mode")
	}

	dir := t.TempDir()
	prompt := filepath.Join(dir, "prompt.json")
	other := filepath.Join(dir, "unrelated.json")
	require.NoError(t, os.WriteFile(prompt, []byte("{}"), 0o644))

	var mu sync.Mutex
	var calls [][]string
	w, err := New([]string{prompt}, func(changed []string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, changed)
	}, WithDebounce(100*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, ready) }()
	<-ready

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(prompt, []byte(`{"n": 1}`), 0o644))
		require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) >= 1
	}, 3*time.Second, 20*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, calls, 1, "one burst, one call")
	abs, _ := filepath.Abs(prompt)
	assert.Equal(t, []string{abs}, calls[0])
}
