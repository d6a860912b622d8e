package utils

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pitabwire/util"

	"github.com/soundvault/service-catalog/service/types"
)

// GetPathFromBase64Hash evaluates the path to a media file from its
// content hash. The hash is spread over three nested directories
// (h[0]/h[1]/h[2:]) to avoid overloading a single directory with entries.
func GetPathFromBase64Hash(base64Hash types.Base64Hash, absBasePath types.Path) (string, error) {
	if len(base64Hash) < 3 {
		return "", fmt.Errorf("invalid filePath (Base64Hash too short - min 3 characters): %q", base64Hash)
	}
	if len(base64Hash) > 255 {
		return "", fmt.Errorf("invalid filePath (Base64Hash too long - max 255 characters): %q", base64Hash)
	}

	filePath, err := filepath.Abs(filepath.Join(
		string(absBasePath),
		string(base64Hash[0:1]),
		string(base64Hash[1:2]),
		string(base64Hash[2:]),
		"file",
	))
	if err != nil {
		return "", fmt.Errorf("unable to construct filePath: %w", err)
	}

	// check if the absolute absBasePath is a prefix of the absolute filePath
	// if so, no directory escape has occurred and the filePath is valid
	// Note: absBasePath is already absolute
	if !strings.HasPrefix(filePath, string(absBasePath)) {
		return "", fmt.Errorf("invalid filePath (not within absBasePath %v): %v", absBasePath, filePath)
	}

	return filePath, nil
}

// BucketKeyFromHash derives the bucket key for a blob from its content
// hash, using the same three level fan-out as the local hash layout.
func BucketKeyFromHash(base64Hash types.Base64Hash) (types.Path, error) {
	if len(base64Hash) < 3 {
		return "", fmt.Errorf("invalid filePath (Base64Hash too short - min 3 characters): %v", base64Hash)
	}
	return types.Path(fmt.Sprintf("%s/%s/%s/content", base64Hash[0:1], base64Hash[1:2], base64Hash[2:])), nil
}

// CreateTempDir creates a tmp/<random string> directory within baseDirectory.
func CreateTempDir(baseDirectory types.Path) (types.Path, error) {
	baseTmpDir := filepath.Join(string(baseDirectory), "tmp")
	if err := os.MkdirAll(baseTmpDir, 0770); err != nil {
		return "", fmt.Errorf("failed to create base temp dir: %w", err)
	}
	tmpDir, err := os.MkdirTemp(baseTmpDir, "")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return types.Path(tmpDir), nil
}

// WriteTempFile writes reader to a "content" file within a fresh temporary
// directory under absBasePath, hashing the bytes as they pass through.
// Returns the URL-safe base64 encoded SHA-256 hash of the written content,
// the number of bytes written and the temporary directory holding the file.
func WriteTempFile(ctx context.Context, reqReader io.Reader, absBasePath types.Path) (types.Base64Hash, types.FileSizeBytes, types.Path, error) {
	logger := util.Log(ctx)

	tmpDir, err := CreateTempDir(absBasePath)
	if err != nil {
		return "", -1, "", err
	}

	tmpFile, err := os.Create(filepath.Join(string(tmpDir), "content"))
	if err != nil {
		RemoveDir(tmpDir, logger)
		return "", -1, "", err
	}
	defer util.CloseAndLogOnError(ctx, tmpFile)

	hasher := sha256.New()
	bytesWritten, err := io.Copy(io.MultiWriter(tmpFile, hasher), reqReader)
	if err != nil && err != io.EOF {
		RemoveDir(tmpDir, logger)
		return "", -1, "", err
	}

	hash := base64.RawURLEncoding.EncodeToString(hasher.Sum(nil))
	return types.Base64Hash(hash), types.FileSizeBytes(bytesWritten), tmpDir, nil
}

// RemoveDir removes a directory and logs a warning in case of an error.
func RemoveDir(dir types.Path, logger *util.LogEntry) {
	dirErr := os.RemoveAll(string(dir))
	if dirErr != nil {
		logger.WithError(dirErr).WithField("dir", dir).Warn("Failed to remove directory")
	}
}
