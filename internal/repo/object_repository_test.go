package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectRepository_PutGetExists(t *testing.T) {
	r, err := NewObjectRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := r.Exists(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Put(ctx, "PromptKeeper/snapshot.json", []byte(`{"items":[]}`)))

	ok, err = r.Exists(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.True(t, ok)

	b, err := r.Get(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"items":[]}`), b)

	// overwrite replaces content
	require.NoError(t, r.Put(ctx, "PromptKeeper/snapshot.json", []byte("v2")))
	b, err = r.Get(ctx, "PromptKeeper/snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), b)
}

func TestObjectRepository_MissingObject(t *testing.T) {
	r, err := NewObjectRepository(t.TempDir())
	require.NoError(t, err)

	_, err = r.Get(context.Background(), "nope/missing.json")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}

func TestObjectRepository_EnsureDirIdempotent(t *testing.T) {
	r, err := NewObjectRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.EnsureDir(ctx, "PromptKeeper"))
	require.NoError(t, r.EnsureDir(ctx, "PromptKeeper"))
}

func TestObjectRepository_RejectsTraversal(t *testing.T) {
	r, err := NewObjectRepository(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, key := range []string{"../escape", "a/../../b", "", "a//b"} {
		assert.ErrorIs(t, r.Put(ctx, key, []byte("x")), ErrBadObjectPath, "key %q", key)
	}
}
