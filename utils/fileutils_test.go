package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pitabwire/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundvault/service-catalog/service/types"
)

func TestGetPathFromBase64Hash(t *testing.T) {
	testCases := []struct {
		name        string
		hash        types.Base64Hash
		basePath    types.Path
		expectedErr bool
		expectedDir string
	}{
		{
			name:        "valid_hash_creates_correct_path",
			hash:        "abcdefghijk",
			basePath:    "/tmp/test",
			expectedErr: false,
			expectedDir: "a/b/cdefghijk",
		},
		{
			name:        "minimum_length_hash",
			hash:        "abc",
			basePath:    "/tmp/test",
			expectedErr: false,
			expectedDir: "a/b/c",
		},
		{
			name:        "hash_too_short",
			hash:        "ab",
			basePath:    "/tmp/test",
			expectedErr: true,
		},
		{
			name:        "empty_hash",
			hash:        "",
			basePath:    "/tmp/test",
			expectedErr: true,
		},
		{
			name:        "hash_too_long",
			hash:        types.Base64Hash(strings.Repeat("a", 256)),
			basePath:    "/tmp/test",
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path, err := GetPathFromBase64Hash(tc.hash, tc.basePath)

			if tc.expectedErr {
				assert.Error(t, err)
				assert.Empty(t, path)
			} else {
				assert.NoError(t, err)
				assert.Contains(t, path, tc.expectedDir)
				assert.Contains(t, path, "file")
				assert.True(t, filepath.IsAbs(path))
			}
		})
	}
}

func TestBucketKeyFromHash(t *testing.T) {
	testCases := []struct {
		name        string
		hash        types.Base64Hash
		expectedKey types.Path
		expectedErr bool
	}{
		{
			name:        "valid_hash",
			hash:        "abcdefghijk",
			expectedKey: "a/b/cdefghijk/content",
		},
		{
			name:        "minimum_length_hash",
			hash:        "abc",
			expectedKey: "a/b/c/content",
		},
		{
			name:        "hash_too_short",
			hash:        "ab",
			expectedErr: true,
		},
		{
			name:        "empty_hash",
			hash:        "",
			expectedErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			key, err := BucketKeyFromHash(tc.hash)
			if tc.expectedErr {
				assert.Error(t, err)
				assert.Empty(t, key)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedKey, key)
			}
		})
	}
}

func TestCreateTempDir(t *testing.T) {
	baseDir, err := os.MkdirTemp("", "fileutils_test")
	require.NoError(t, err)
	defer os.RemoveAll(baseDir)

	tempDir, err := CreateTempDir(types.Path(baseDir))
	require.NoError(t, err)
	require.NotEmpty(t, tempDir)

	// Verify the directory exists
	_, err = os.Stat(string(tempDir))
	assert.NoError(t, err)

	// Verify it's within the base directory
	assert.Contains(t, string(tempDir), baseDir)
	assert.Contains(t, string(tempDir), "tmp/")

	RemoveDir(tempDir, util.Log(t.Context()))
}

func TestWriteTempFile(t *testing.T) {
	baseDir, err := os.MkdirTemp("", "fileutils_test")
	require.NoError(t, err)
	defer os.RemoveAll(baseDir)

	testContent := "Hello, World! This is test content for file writing."
	reader := strings.NewReader(testContent)

	hash, size, path, err := WriteTempFile(t.Context(), reader, types.Path(baseDir))

	require.NoError(t, err)
	require.Equal(t, types.FileSizeBytes(len(testContent)), size)
	require.NotEmpty(t, path)

	// Hash is the URL-safe base64 encoding of the content's SHA-256
	sum := sha256.Sum256([]byte(testContent))
	assert.Equal(t, types.Base64Hash(base64.RawURLEncoding.EncodeToString(sum[:])), hash)

	// The staged file lands at <tmpDir>/content with the original bytes
	written, err := os.ReadFile(filepath.Join(string(path), "content"))
	require.NoError(t, err)
	assert.Equal(t, testContent, string(written))
}

func TestWriteTempFileWithEmptyContent(t *testing.T) {
	baseDir, err := os.MkdirTemp("", "fileutils_test")
	require.NoError(t, err)
	defer os.RemoveAll(baseDir)

	hash, size, path, err := WriteTempFile(t.Context(), strings.NewReader(""), types.Path(baseDir))

	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.Equal(t, types.FileSizeBytes(0), size)
	require.NotEmpty(t, path)

	_, err = os.Stat(string(path))
	assert.NoError(t, err)
}

func TestWriteTempFileErrorHandling(t *testing.T) {
	reader := strings.NewReader("test")

	// Use a path that doesn't exist and can't be created
	invalidPath := types.Path("/invalid/nonexistent/path")

	_, _, _, err := WriteTempFile(t.Context(), reader, invalidPath)
	assert.Error(t, err)
}

func TestRemoveDir(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "remove_test")
	require.NoError(t, err)

	testFile := filepath.Join(tempDir, "test.txt")
	err = os.WriteFile(testFile, []byte("test"), 0644)
	require.NoError(t, err)

	RemoveDir(types.Path(tempDir), util.Log(t.Context()))

	_, err = os.Stat(tempDir)
	assert.True(t, os.IsNotExist(err))
}
