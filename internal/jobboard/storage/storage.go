// Package storage persists uploaded resume files and hands back opaque
// refs. Content-type and size validation live here, not in the callers.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore is the contract the application core depends on. Store
// returns an opaque ref; Delete is best-effort cleanup.
type FileStore interface {
	Store(ctx context.Context, filename string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DiskStore keeps files under a single root directory. Refs are
// uuid-based file names; anything containing a path separator is
// rejected before touching the filesystem.
type DiskStore struct {
	root         string
	maxBytes     int64
	allowedTypes map[string]bool
	logger       *zap.Logger
}

// DefaultResumeTypes is the allow-list for resume uploads.
var DefaultResumeTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func NewDiskStore(root string, maxBytes int64, allowedTypes []string, logger *zap.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &DiskStore{
		root:         root,
		maxBytes:     maxBytes,
		allowedTypes: allowed,
		logger:       logger.Named("disk_store"),
	}, nil
}

// Store validates size and sniffed content type, then writes the file
// under a fresh uuid-based ref.
func (s *DiskStore) Store(_ context.Context, filename string, r io.Reader, size int64) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("%w: empty upload", e.ErrInvalidInput)
	}
	if size > s.maxBytes {
		return "", fmt.Errorf("%w: upload exceeds %d bytes", e.ErrInvalidInput, s.maxBytes)
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("%w: read upload: %v", e.ErrDependency, err)
	}
	head = head[:n]

	contentType := http.DetectContentType(head)
	// DetectContentType cannot distinguish office documents from plain
	// zip archives, so the docx type is matched on the generic result.
	if !s.typeAllowed(contentType) {
		return "", fmt.Errorf("%w: file type %s not allowed", e.ErrInvalidInput, contentType)
	}

	ref := uuid.New().String() + sanitizeExt(filename)
	f, err := os.Create(filepath.Join(s.root, ref))
	if err != nil {
		return "", fmt.Errorf("%w: create file: %v", e.ErrDependency, err)
	}
	defer f.Close()

	written, err := io.Copy(f, io.MultiReader(strings.NewReader(string(head)), io.LimitReader(r, s.maxBytes)))
	if err != nil {
		_ = os.Remove(filepath.Join(s.root, ref))
		return "", fmt.Errorf("%w: write file: %v", e.ErrDependency, err)
	}
	if written > s.maxBytes {
		_ = os.Remove(filepath.Join(s.root, ref))
		return "", fmt.Errorf("%w: upload exceeds %d bytes", e.ErrInvalidInput, s.maxBytes)
	}
	return ref, nil
}

// Delete removes the file behind ref. Best-effort callers log the error
// and move on; a missing file is not an error.
func (s *DiskStore) Delete(_ context.Context, ref string) error {
	path, err := s.refPath(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove file: %v", e.ErrDependency, err)
	}
	return nil
}

func (s *DiskStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	path, err := s.refPath(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, e.ErrNotFound
		}
		return nil, fmt.Errorf("%w: open file: %v", e.ErrDependency, err)
	}
	return f, nil
}

func (s *DiskStore) typeAllowed(contentType string) bool {
	if s.allowedTypes[contentType] {
		return true
	}
	// docx/doc uploads sniff as zip or generic binary.
	if contentType == "application/zip" || contentType == "application/octet-stream" {
		return s.allowedTypes["application/msword"] ||
			s.allowedTypes["application/vnd.openxmlformats-officedocument.wordprocessingml.document"]
	}
	return false
}

func (s *DiskStore) refPath(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("%w: invalid file ref", e.ErrInvalidInput)
	}
	return filepath.Join(s.root, ref), nil
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf", ".doc", ".docx":
		return ext
	}
	return ""
}
