package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrTooLarge is returned when a stream exceeds the configured size limit.
var ErrTooLarge = errors.New("object exceeds size limit")

// Object describes a stored file relative to its bucket.
type Object struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LocalStorage persists objects on disk. Each top-level directory under the
// base dir acts as a bucket.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save writes data to bucket/name.
func (s *LocalStorage) Save(bucket, name string, data []byte) (string, error) {
	rel, path, err := s.resolve(bucket, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare bucket: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return rel, nil
}

// SaveStream copies r into bucket/name, rejecting streams over maxBytes when
// maxBytes is positive. A rejected upload leaves no partial file behind.
func (s *LocalStorage) SaveStream(bucket, name string, r io.Reader, maxBytes int64) (string, int64, error) {
	rel, path, err := s.resolve(bucket, name)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", 0, fmt.Errorf("prepare bucket: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create object: %w", err)
	}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	if copyErr == nil && maxBytes > 0 && written > maxBytes {
		copyErr = ErrTooLarge
	}
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		_ = os.Remove(path)
		if errors.Is(copyErr, ErrTooLarge) {
			return "", 0, copyErr
		}
		return "", 0, fmt.Errorf("write object stream: %w", copyErr)
	}
	return rel, written, nil
}

// Open returns a read-only handle for a stored object addressed by its
// bucket-relative path.
func (s *LocalStorage) Open(relPath string) (*os.File, error) {
	path, err := s.within(relPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored object if present.
func (s *LocalStorage) Delete(relPath string) error {
	path, err := s.within(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// List returns the objects in bucket, newest first.
func (s *LocalStorage) List(bucket string) ([]Object, error) {
	root := filepath.Join(s.baseDir, filepath.Clean("/"+bucket))
	objects := make([]Object, 0)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, path)
		if err != nil {
			return err
		}
		objects = append(objects, Object{Path: filepath.ToSlash(rel), Size: info.Size(), UpdatedAt: info.ModTime().UTC()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", bucket, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].UpdatedAt.After(objects[j].UpdatedAt) })
	return objects, nil
}

func (s *LocalStorage) resolve(bucket, name string) (string, string, error) {
	if bucket == "" || name == "" {
		return "", "", fmt.Errorf("bucket and name required")
	}
	rel := filepath.ToSlash(filepath.Join(bucket, filepath.Base(name)))
	path, err := s.within(rel)
	return rel, path, err
}

// within maps a relative path under the base dir, refusing traversal.
func (s *LocalStorage) within(relPath string) (string, error) {
	cleaned := filepath.Clean("/" + relPath)
	if strings.Contains(relPath, "..") {
		return "", fmt.Errorf("invalid object path %q", relPath)
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
