package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pureclarity/feedsync/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileScheduler(t *testing.T) (*ScheduledFileScheduler, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewScheduledFileScheduler(nil, config.Feeds{ScheduleDir: dir}, config.Schedules{})
	return s, dir
}

func TestConsumeFile(t *testing.T) {
	t.Run("missing file is a quiet no-op", func(t *testing.T) {
		s, _ := newFileScheduler(t)
		_, ok := s.consumeFile()
		assert.False(t, ok)
	})

	t.Run("reads and deletes the drop file", func(t *testing.T) {
		s, dir := newFileScheduler(t)
		path := filepath.Join(dir, scheduledFeedFile)
		require.NoError(t, os.WriteFile(path, []byte(`{"store":3,"feeds":["product","order"]}`), 0o644))

		request, ok := s.consumeFile()
		require.True(t, ok)
		assert.Equal(t, 3, request.Store)
		assert.Equal(t, []string{"product", "order"}, request.Feeds)

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "file must be consumed")
	})

	t.Run("invalid contents are consumed but ignored", func(t *testing.T) {
		s, dir := newFileScheduler(t)
		path := filepath.Join(dir, scheduledFeedFile)
		require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

		_, ok := s.consumeFile()
		assert.False(t, ok)

		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err), "bad file must not be retried forever")
	})

	t.Run("empty feed list is ignored", func(t *testing.T) {
		s, dir := newFileScheduler(t)
		path := filepath.Join(dir, scheduledFeedFile)
		require.NoError(t, os.WriteFile(path, []byte(`{"store":1,"feeds":[]}`), 0o644))

		_, ok := s.consumeFile()
		assert.False(t, ok)
	})
}
