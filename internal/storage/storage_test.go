package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valisyam/shub/internal/storage"
)

func TestLocalStorage(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, size, err := store.Upload(ctx, "rfq", "Bracket.STEP", "application/step", strings.NewReader("solid"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
	assert.True(t, strings.HasPrefix(path, "rfq/"))
	assert.True(t, strings.HasSuffix(path, ".step"))

	rc, err := store.Download(ctx, path)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "solid", string(body))

	require.NoError(t, store.Delete(ctx, path))
	require.NoError(t, store.Delete(ctx, path))

	_, err = store.Download(ctx, path)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalStorage_RejectsEscapingPaths(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Download(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}
