package identity

import (
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^user_\d+_[0-9a-z]{9}$`)

func TestUserID_FormatAndStability(t *testing.T) {
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)

	id, err := s.UserID()
	require.NoError(t, err)
	assert.Regexp(t, idPattern, id)

	again, err := s.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestUserID_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir)
	require.NoError(t, err)
	id, err := s1.UserID()
	require.NoError(t, err)

	// A fresh Store over the same directory reads the persisted id.
	s2, err := NewStore(dir)
	require.NoError(t, err)
	again, err := s2.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestUserID_ExistingFileWins(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_id"), []byte("user_1_abcdefghi\n"), 0o644))

	s, err := NewStore(dir)
	require.NoError(t, err)
	id, err := s.UserID()
	require.NoError(t, err)
	assert.Equal(t, "user_1_abcdefghi", id)
}

func TestUserID_ConcurrentFirstUse(t *testing.T) {
	dir := t.TempDir()

	// Separate stores simulate independent racers over one directory.
	const n = 8
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := NewStore(dir)
			require.NoError(t, err)
			id, err := s.UserID()
			require.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i], "every racer must settle on one id")
	}
}
