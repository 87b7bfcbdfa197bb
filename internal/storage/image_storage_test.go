package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/lostfound-backend/internal/pkg/apperror"
)

// pngHeader минимальная сигнатура PNG.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestImageStorage_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s, err := NewImageStorage(root, 1)
	require.NoError(t, err)
	owner := uuid.New()

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 1024)...)
	ref, size, err := s.Save(context.Background(), owner, "../../wallet.jpg", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)
	assert.True(t, strings.HasPrefix(ref, owner.String()+"/"))
	assert.True(t, strings.HasSuffix(ref, ".png"))

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, data, stored)

	require.NoError(t, s.Delete(context.Background(), ref))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(ref)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(context.Background(), ref))
}

func TestImageStorage_RejectsNonImage(t *testing.T) {
	s, err := NewImageStorage(t.TempDir(), 1)
	require.NoError(t, err)

	_, _, err = s.Save(context.Background(), uuid.New(), "notes.png", strings.NewReader("plain text, not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = s.Save(context.Background(), uuid.New(), "empty.png", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestImageStorage_RejectsOversized(t *testing.T) {
	s, err := NewImageStorage(t.TempDir(), 1)
	require.NoError(t, err)

	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{1}, 1024*1024+10)...)
	_, _, err = s.Save(context.Background(), uuid.New(), "big.png", bytes.NewReader(data))
	assert.True(t, apperror.IsValidation(err))
}

func TestImageStorage_DeleteOutsideRoot(t *testing.T) {
	s, err := NewImageStorage(t.TempDir(), 1)
	require.NoError(t, err)

	assert.Error(t, s.Delete(context.Background(), "../../etc/passwd"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo", sanitizeFilename(""))
	assert.Equal(t, "my_wallet.jpg", sanitizeFilename("/tmp/my wallet.jpg"))
}
