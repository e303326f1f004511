package memory_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/memory"
)

func TestFileStore_List_MissingRoot(t *testing.T) {
	store := memory.NewFileStore(filepath.Join(t.TempDir(), "nonexistent"))

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFileStore_List_SkipsHidden(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "search/web/abc", "{}")
	writeTestFile(t, root, ".hidden", "secret")
	writeTestFile(t, root, "search/.tmp-123", "partial")

	keys, err := memory.NewFileStore(root).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"search/web/abc"}, keys)
}

func TestFileStore_SaveLoad(t *testing.T) {
	root := t.TempDir()
	store := memory.NewFileStore(root)

	require.NoError(t, store.Save(context.Background(),
		memory.Entry{Key: "search/web/a", Value: []byte(`"alpha"`)},
		memory.Entry{Key: "search/wiki/b", Value: []byte(`"beta"`)},
	))

	got, err := os.ReadFile(filepath.Join(root, "search", "wiki", "b"))
	require.NoError(t, err)
	assert.Equal(t, `"beta"`, string(got))

	entries, err := store.Load(context.Background(), "search/web/a", "search/wiki/b")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "search/web/a", entries[0].Key)
	assert.Equal(t, `"alpha"`, string(entries[0].Value))
}

func TestFileStore_Save_Overwrite(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, memory.Entry{Key: "k", Value: []byte("v1")}))
	require.NoError(t, store.Save(ctx, memory.Entry{Key: "k", Value: []byte("v2")}))

	entries, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(entries[0].Value))
}

func TestFileStore_Load_KeyNotFound(t *testing.T) {
	_, err := memory.NewFileStore(t.TempDir()).Load(context.Background(), "missing")
	assert.ErrorIs(t, err, memory.ErrKeyNotFound)
}

func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	store := memory.NewFileStore(t.TempDir())
	ctx := context.Background()

	for _, key := range []string{"", "../outside", "/etc/passwd", "a/../../b"} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, store.Save(ctx, memory.Entry{Key: key, Value: []byte("x")}), memory.ErrInvalidKey)
			_, err := store.Load(ctx, key)
			assert.ErrorIs(t, err, memory.ErrInvalidKey)
		})
	}
}

func TestFileStore_Delete_PrunesEmptyParents(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "search/web/a", "x")
	store := memory.NewFileStore(root)

	require.NoError(t, store.Delete(context.Background(), "search/web/a", "never-existed"))

	_, err := os.Stat(filepath.Join(root, "search"))
	assert.True(t, os.IsNotExist(err), "empty parent directories should be removed")
}

func TestFileStore_Delete_PreservesParentWithSiblings(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "search/web/a", "x")
	writeTestFile(t, root, "search/web/b", "y")
	store := memory.NewFileStore(root)

	require.NoError(t, store.Delete(context.Background(), "search/web/a"))

	_, err := os.Stat(filepath.Join(root, "search", "web", "b"))
	assert.NoError(t, err)
}

// writeTestFile creates a file with the given content under root.
func writeTestFile(t *testing.T, root, key, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(key))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
