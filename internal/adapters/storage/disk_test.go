package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStorage_SaveOpenDelete(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewDiskStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "1-2_a.png", strings.NewReader("data"), 4, "image/png"))

	rc, err := s.Open(ctx, "1-2_a.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))

	err = s.Save(ctx, "1-2_a.png", strings.NewReader("other"), 5, "image/png")
	assert.ErrorIs(t, err, fs.ErrExist)

	require.NoError(t, s.Delete(ctx, "1-2_a.png"))
	_, err = s.Open(ctx, "1-2_a.png")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestDiskStorage_RejectsPathNames(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", ".", "..", "../escape.png", `a\b.png`, "sub/a.png"} {
		err := s.Save(ctx, name, strings.NewReader("x"), 1, "image/png")
		assert.ErrorIs(t, err, fs.ErrNotExist, "name %q", name)

		_, err = s.Open(ctx, name)
		assert.ErrorIs(t, err, fs.ErrNotExist, "name %q", name)
	}

	_, err = os.Stat(filepath.Join(filepath.Dir(s.Dir()), "escape.png"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestDiskStorage_SaveFailureLeavesNothing(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir())
	require.NoError(t, err)

	err = s.Save(context.Background(), "broken.png", failingReader{}, 10, "image/png")
	require.Error(t, err)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
