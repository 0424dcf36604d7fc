package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// URLPrefix is the public path uploaded files are served under.
const URLPrefix = "/uploads/"

const sniffLen = 512

var (
	ErrEmptyFile       = errors.New("uploaded file is empty")
	ErrFileTooLarge    = errors.New("uploaded file is too large")
	ErrUnsupportedType = errors.New("uploaded file is not an image")
)

// Upload is one incoming file. Size is the client-declared size and may be zero when unknown.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save writes the upload under a random, timestamp-prefixed name and returns its public URL.
func (s *LocalStore) Save(upload Upload) (string, error) {
	if upload.Size > s.maxBytes {
		return "", ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Reader, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload failed: %w", err)
	}
	if n == 0 {
		return "", ErrEmptyFile
	}
	head = head[:n]

	if !strings.HasPrefix(mimetype.Detect(head).String(), "image/") {
		return "", ErrUnsupportedType
	}

	name := generateName(upload.Filename)
	path := filepath.Join(s.dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload file failed: %w", err)
	}

	body := io.MultiReader(bytes.NewReader(head), io.LimitReader(upload.Reader, s.maxBytes-int64(n)+1))
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload failed: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("finalize upload failed: %w", closeErr)
	case written > s.maxBytes:
		_ = os.Remove(path)
		return "", ErrFileTooLarge
	}

	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save. URLs outside URLPrefix are ignored.
func (s *LocalStore) Remove(url string) error {
	if !strings.HasPrefix(url, URLPrefix) {
		return nil
	}
	name := filepath.Base(strings.TrimPrefix(url, URLPrefix))
	if name == "." || name == string(filepath.Separator) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload failed: %w", err)
	}
	return nil
}

func generateName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}
