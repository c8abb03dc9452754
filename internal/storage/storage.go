package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store manages the on-disk firmware image layout: one directory per
// version under the storage root.
type Store struct {
	root     string
	maxBytes int64
}

// New creates a firmware store. maxBytes caps accepted image sizes; zero
// means unlimited.
func New(root string, maxBytes int64) *Store {
	return &Store{root: root, maxBytes: maxBytes}
}

// Root returns the storage root directory
func (s *Store) Root() string {
	return s.root
}

// EnsureRoot creates the storage root directory if it doesn't exist
func (s *Store) EnsureRoot() error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("failed to create storage root %s: %w", s.root, err)
	}
	return nil
}

// StoreFirmwareFile copies a firmware image into <root>/<version>/ and
// returns the stored path, size and SHA-256 digest. If the image exceeds
// the size cap the partial copy is deleted and the operation fails without
// leaving an orphaned file behind.
func (s *Store) StoreFirmwareFile(source, version string) (string, int64, string, error) {
	if version == "" {
		return "", 0, "", fmt.Errorf("version is required")
	}

	if err := s.EnsureRoot(); err != nil {
		return "", 0, "", err
	}

	targetDir := filepath.Join(s.root, version)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", 0, "", fmt.Errorf("failed to create firmware directory: %w", err)
	}

	target := filepath.Join(targetDir, filepath.Base(source))
	size, err := copyFile(source, target)
	if err != nil {
		os.Remove(target)
		return "", 0, "", fmt.Errorf("failed to copy firmware file: %w", err)
	}

	if s.maxBytes > 0 && size > s.maxBytes {
		os.Remove(target)
		return "", 0, "", fmt.Errorf("firmware file exceeds limit (%d bytes > %d bytes)", size, s.maxBytes)
	}

	digest, err := ComputeSHA256(target)
	if err != nil {
		os.Remove(target)
		return "", 0, "", err
	}

	return target, size, digest, nil
}

// ComputeSHA256 returns the hex-encoded SHA-256 digest of a file's contents
func ComputeSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func copyFile(source, target string) (int64, error) {
	in, err := os.Open(source)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	size, err := io.Copy(out, in)
	if err != nil {
		return 0, err
	}

	return size, out.Close()
}
