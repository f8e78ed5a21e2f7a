package services

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// ImageStore owns the uploaded image files in a single directory and
// hands them out as /uploads/ paths for the static file mount.
type ImageStore struct {
	mu        sync.Mutex
	uploadDir string
	lastToken int64
}

func NewImageStore(uploadDir string) (*ImageStore, error) {
	// Create upload directory if it doesn't exist
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, err
	}
	return &ImageStore{uploadDir: uploadDir}, nil
}

// Save writes the blob under a millisecond-timestamp name carrying the
// original file's extension and returns the /uploads/ path it will be
// served from.
func (s *ImageStore) Save(filename string, file io.Reader) (string, error) {
	newFilename := strconv.FormatInt(s.nextToken(), 10) + filepath.Ext(filename)
	filePath := filepath.Join(s.uploadDir, newFilename)

	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath) // Clean up on error
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return "/uploads/" + newFilename, nil
}

// nextToken bumps past the last handed-out token when the clock has not
// moved, so saves within one millisecond still get distinct names.
func (s *ImageStore) nextToken() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := time.Now().UnixMilli()
	if token <= s.lastToken {
		token = s.lastToken + 1
	}
	s.lastToken = token
	return token
}

// Delete removes the file behind a stored /uploads/ path. Callers run
// it best-effort: failures are logged, never propagated to the client.
func (s *ImageStore) Delete(storedPath string) error {
	name := path.Base(storedPath)
	if name == "." || name == "/" {
		return fmt.Errorf("invalid image path %q", storedPath)
	}
	return os.Remove(filepath.Join(s.uploadDir, name))
}
