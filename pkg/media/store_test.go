package media

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCreatesDirectoryAndReturnsRelativePath(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	_, err := os.Stat(store.Dir())
	require.True(t, os.IsNotExist(err), "directory is created on first use")

	rel, err := store.Save("20240101120000", "bin1.jpg", []byte("jpeg bytes"))
	require.NoError(t, err)
	assert.Equal(t, "images/20240101120000_bin1.jpg", rel)

	got, err := os.ReadFile(filepath.Join(root, "images", "20240101120000_bin1.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg bytes"), got)
	assert.Equal(t, filepath.Join(root, "images", "20240101120000_bin1.jpg"), store.Resolve(rel))
}

func TestSaveSameSecondSameNameOverwrites(t *testing.T) {
	store := New(t.TempDir())

	first, err := store.Save("20240101120000", "bin1.jpg", []byte("first"))
	require.NoError(t, err)
	second, err := store.Save("20240101120000", "bin1.jpg", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	got, err := os.ReadFile(store.Resolve(second))
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestSaveKeepsUploadsInsideContentDirectory(t *testing.T) {
	root := t.TempDir()
	store := New(root)

	rel, err := store.Save("20240101120000", "../../etc/passwd.png", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "images/20240101120000_passwd.png", rel)

	rel, err = store.Save("20240101120000", `C:\Users\asha\bin.png`, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "images/20240101120000_bin.png", rel)
}

func TestSaveReturnsIOErrorWhenDirectoryCannotBeCreated(t *testing.T) {
	root := t.TempDir()
	// A regular file where the images directory should go.
	require.NoError(t, os.WriteFile(filepath.Join(root, DirName), []byte("not a dir"), 0o644))

	_, err := New(root).Save("20240101120000", "bin1.jpg", []byte("x"))
	require.Error(t, err)
	var ioErr *IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "bin1.jpg", CleanFilename("bin1.jpg"))
	assert.Equal(t, "upload", CleanFilename(""))
	assert.Equal(t, "upload", CleanFilename(".."))
	assert.Equal(t, " bin 1 .jpg", CleanFilename("photos/ bin 1 .jpg"), "spaces in the base name are kept")
	// "e" + combining acute accent becomes the precomposed form.
	assert.Equal(t, "caf\u00e9.png", CleanFilename("cafe\u0301.png"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "/images/20240101120000_bin1.jpg", PublicURL("images/20240101120000_bin1.jpg"))
	assert.Equal(t, "/images/x.png", PublicURL("images/../images/x.png"))
}
