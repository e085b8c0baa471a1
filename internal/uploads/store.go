// Package uploads stores user-supplied cover images under the static file
// tree and hands back the public URLs they are served from.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// allowed cover image extensions
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

var (
	ErrFileTooLarge    = errors.New("uploaded file exceeds the size limit")
	ErrUnsupportedType = errors.New("unsupported image type, allowed: png, jpg, jpeg, gif")
	ErrEmptyUpload     = errors.New("uploaded file is empty")
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*#\[\]]`)
	// Whitespace to collapse into single underscores
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// Store saves cover images on disk and serves them through the static route.
type Store struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewStore creates a cover store rooted at <staticPath>/images/covers.
// Files larger than maxBytes are rejected.
func NewStore(staticPath string, maxBytes int64) (*Store, error) {
	dir := filepath.Join(staticPath, "images", "covers")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create covers dir: %w", err)
	}

	return &Store{
		dir:      dir,
		baseURL:  "/static/images/covers",
		maxBytes: maxBytes,
	}, nil
}

// SaveCover validates and stores an uploaded cover image, returning the
// public URL it will be served from. The stored name is the upload time plus
// the sanitized original filename, so re-uploads never clobber each other.
func (s *Store) SaveCover(header *multipart.FileHeader) (string, error) {
	if header == nil || header.Filename == "" {
		return "", ErrEmptyUpload
	}
	if header.Size == 0 {
		return "", ErrEmptyUpload
	}
	if header.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	name := s.storedName(header.Filename, ext)

	// Write to a temp file in the same directory, then rename into place.
	tmpFile, err := os.CreateTemp(s.dir, "upload_tmp_")
	if err != nil {
		return "", err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath)
	}()

	// Copy one byte past the limit so oversized bodies with an understated
	// Content-Length still get caught.
	written, err := io.Copy(tmpFile, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	if written > s.maxBytes {
		return "", ErrFileTooLarge
	}
	if err := tmpFile.Close(); err != nil {
		return "", err
	}

	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		return "", err
	}

	return path.Join(s.baseURL, name), nil
}

// Remove deletes a stored cover given its public URL. URLs outside the
// store's base are ignored, as are already-deleted files.
func (s *Store) Remove(imageURL string) error {
	if !strings.HasPrefix(imageURL, s.baseURL+"/") {
		return nil
	}

	name := path.Base(imageURL)
	if name == "." || name == "/" {
		return nil
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Dir returns the directory covers are stored in.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) storedName(original, ext string) string {
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = sanitizeFilename(base)
	return fmt.Sprintf("%s_%s%s", time.Now().Format("20060102150405"), base, ext)
}

// sanitizeFilename strips characters that are invalid or awkward in
// filenames and collapses whitespace to underscores.
func sanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = strings.TrimSpace(filename)
	filename = whitespaceRun.ReplaceAllString(filename, "_")

	// Leave room for the timestamp prefix and extension
	if len(filename) > 100 {
		filename = strings.Trim(filename[:100], "_")
	}
	if filename == "" {
		filename = "cover"
	}
	return filename
}
