package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileStoreSaveAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalFileStore(root)
	require.NoError(t, err)

	key, err := store.Save(context.Background(), "agreements", ".pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "agreements/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))

	data, err := os.ReadFile(filepath.Join(root, key))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = os.Stat(filepath.Join(root, key))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), key))
}
